package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDs(t *testing.T) {
	gen := NewFixedRunIDs("run-1")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-1", gen.Generate())
}

func TestFixedRunIDs_DefaultID(t *testing.T) {
	assert.Equal(t, "test-run", NewFixedRunIDs("").Generate())
}
