package stubdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wellbeing/internal/database"
	"github.com/roach88/wellbeing/internal/stub"
)

var _ database.Runner = (*Runner)(nil)

func TestRunner_DatabaseResult(t *testing.T) {
	run := NewRunner()
	rows := []map[string]any{{"id": 1}}
	require.NoError(t, run.Stub.WithArgs(stub.StringType, 1).ReturnsDatabaseResult(rows))

	result, err := run.Query(context.Background(), "SELECT * FROM users WHERE id = $1;", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount())
	assert.Equal(t, []database.Row{{"id": 1}}, result.RowsOfObjects())
	assert.True(t, run.Stub.CalledWith("SELECT * FROM users WHERE id = $1;", 1))
}

func TestRunner_RowSlice(t *testing.T) {
	run := NewRunner()
	run.Stub.WithArgs(stub.StringType).Returns([]database.Row{{"a": 1}, {"b": 2}})

	result, err := run.Query(context.Background(), "SELECT")
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount())
}

func TestRunner_Error(t *testing.T) {
	run := NewRunner()
	boom := errors.New("connection refused")
	run.Stub.WithArgs(stub.Any).Returns(boom)

	_, err := run.Query(context.Background(), "SELECT")
	assert.ErrorIs(t, err, boom)
}

func TestRunner_UnmatchedIsNilResult(t *testing.T) {
	run := NewRunner()

	result, err := run.Query(context.Background(), "SELECT")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, run.Stub.CalledTimes(1))
}

func TestRunner_UnsupportedValue(t *testing.T) {
	run := NewRunner()
	run.Stub.WithArgs(stub.Any).Returns(42)

	_, err := run.Query(context.Background(), "SELECT")
	assert.Error(t, err)
}

func TestHasher(t *testing.T) {
	ctx := context.Background()
	h := NewHasher()
	h.HashStub.WithArgs("secret").Returns("hashed")
	h.CompareStub.WithArgs("secret", "hashed").Returns(true)
	h.CompareStub.WithArgs("broken", stub.Any).Returns(errors.New("bad hash"))

	hash, err := h.Hash(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, "hashed", hash)

	ok, err := h.Compare(ctx, "secret", "hashed")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, "wrong", "hashed")
	require.NoError(t, err)
	assert.False(t, ok, "unmatched comparison is false")

	_, err = h.Compare(ctx, "broken", "x")
	assert.Error(t, err)

	h.Reset()
	assert.True(t, h.HashStub.CalledTimes(0))
	assert.True(t, h.CompareStub.CalledTimes(0))
}
