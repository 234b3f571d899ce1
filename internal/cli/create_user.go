package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/entrypoint"
)

// CreateUserCommand registers an account without going through HTTP.
type CreateUserCommand struct {
	Username     string
	Password     string
	PasswordFile string
	DatabaseURL  string

	out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username of the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password of the new account")
	fs.StringVar(&cmd.PasswordFile, "password-file", "", "Read the password from this file instead of -password")
	fs.StringVar(&cmd.DatabaseURL, "db", "", "Database URL (defaults to DATABASE_URL)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> (-password <pw> | -password-file <path>) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" && cmd.PasswordFile == "" {
		return fmt.Errorf("one of -password or -password-file is required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run(cfg *config.Config) error {
	password, err := cmd.password()
	if err != nil {
		return err
	}

	if cmd.DatabaseURL != "" {
		cfg.Database.URL = cmd.DatabaseURL
	}
	// Background work is not needed for a one-off command.
	cfg.Tasks.Enabled = false

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.Auth.CreateUser(context.Background(), cmd.Username, password)
	if errors.Is(err, auth.ErrUserExists) {
		return fmt.Errorf("user %q already exists", cmd.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created user %q with id %d\n", user.Username, user.ID)
	return nil
}

func (cmd *CreateUserCommand) password() (string, error) {
	if cmd.PasswordFile == "" {
		return cmd.Password, nil
	}

	data, err := os.ReadFile(cmd.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
