package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/wellbeing/internal/user"
)

// UserOptions holds flags for the user subcommands.
type UserOptions struct {
	*RootOptions
	Email    string
	Password string
	Cost     int
}

// NewUserCommand creates the user command and its subcommands.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register users and check credentials",
	}
	cmd.PersistentFlags().StringVar(&opts.Email, "email", "", "user email")
	cmd.PersistentFlags().StringVar(&opts.Password, "password", "", "user password")
	cmd.PersistentFlags().IntVar(&opts.Cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	cmd.AddCommand(&cobra.Command{
		Use:           "register",
		Short:         "Register a user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "login",
		Short:         "Check a user's credentials",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	})

	return cmd
}

func (o *UserOptions) service(env *dbEnv) *user.Service {
	return user.NewService(env.Runner, user.BcryptHasher{Cost: o.Cost}, env.Logger)
}

func runRegister(cmd *cobra.Command, opts *UserOptions) error {
	out := opts.formatter(cmd)
	env, err := opts.openDB()
	if err != nil {
		return err
	}
	defer env.Close()

	creds := &user.Credentials{Email: opts.Email, Password: opts.Password}
	err = opts.service(env).Register(cmd.Context(), creds)
	env.logQueryStats(out)

	var verr *user.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		_ = out.Error(ErrCodeInvalidInput, err.Error(), verr.Fields)
		return WrapExitError(ExitFailure, "registration failed", err)
	case errors.Is(err, user.ErrMissingCredentials), errors.Is(err, user.ErrEmailTaken):
		_ = out.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitFailure, "registration failed", err)
	default:
		_ = out.Error(ErrCodeQueryFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "registration failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"email": opts.Email, "registered": true})
	}
	fmt.Fprintf(out.Writer, "✓ Registered %s\n", opts.Email)
	return nil
}

func runLogin(cmd *cobra.Command, opts *UserOptions) error {
	out := opts.formatter(cmd)
	env, err := opts.openDB()
	if err != nil {
		return err
	}
	defer env.Close()

	ok, row, err := opts.service(env).Login(cmd.Context(), &user.Credentials{Email: opts.Email, Password: opts.Password})
	env.logQueryStats(out)
	if err != nil {
		_ = out.Error(ErrCodeQueryFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "login failed", err)
	}

	if !ok {
		_ = out.Error(ErrCodeInvalidInput, "invalid email or password", nil)
		return NewExitError(ExitFailure, "invalid email or password")
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"id": row["id"], "email": row["email"]})
	}
	fmt.Fprintf(out.Writer, "✓ Logged in as %v (id %v)\n", row["email"], row["id"])
	return nil
}
