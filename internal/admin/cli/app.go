// Package cli implements chanakyactl, the operator tool that manages
// accounts directly against the configured store.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
)

var ErrUsage = errors.New("usage error")

const usage = `Usage: chanakyactl <command> [args] [config flags]

Commands:
  create-user                      create a free account (prompts for name, email, password)
  set-premium <email> <true|false> grant or revoke the premium subscription
  migrate                          create tables or indexes in the configured store
  help                             show this message
`

type Accounts interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Upgrade(ctx context.Context, email string) (*models.User, error)
	Downgrade(ctx context.Context, email string) (*models.User, error)
}

type Migrator interface {
	RunMigrations(ctx context.Context) error
}

type App struct {
	accounts Accounts
	migrator Migrator
	in       *bufio.Reader
	out      io.Writer
}

func NewApp(a Accounts, m Migrator, in io.Reader, out io.Writer) *App {
	return &App{accounts: a, migrator: m, in: bufio.NewReader(in), out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-user":
		return a.createUser(ctx)
	case "set-premium":
		return a.setPremium(ctx, rest)
	case "migrate":
		return a.migrate(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) createUser(ctx context.Context) error {
	name, err := getText(a.in, "Name", a.out)
	if err != nil {
		return err
	}
	email, err := getText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	if _, err := a.accounts.Register(ctx, name, email, password); err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyExists):
			return fmt.Errorf("user %s already exists", email)
		case errors.Is(err, common.ErrValidation):
			return errors.New("email and password are required")
		}
		return err
	}

	fmt.Fprintf(a.out, "Created user %s\n", email)
	return nil
}

func (a *App) setPremium(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: set-premium <email> <true|false>")
		return ErrUsage
	}

	email := strings.TrimSpace(args[0])
	premium, err := strconv.ParseBool(args[1])
	if err != nil {
		fmt.Fprintf(a.out, "Invalid value %q, expected true or false\n", args[1])
		return ErrUsage
	}

	var user *models.User
	if premium {
		user, err = a.accounts.Upgrade(ctx, email)
	} else {
		user, err = a.accounts.Downgrade(ctx, email)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("user %s not found", email)
		}
		return err
	}

	fmt.Fprintf(a.out, "%s: subscription=%s has_premium=%t\n", user.Email, user.SubscriptionStatus, user.HasPremiumSubscription)
	return nil
}

func (a *App) migrate(ctx context.Context) error {
	if err := a.migrator.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

// CommandArgs returns the command and its positional arguments: the leading
// tokens of args up to the first flag.
func CommandArgs(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") && a != "-h" && a != "--help" {
			return args[:i]
		}
	}
	return args
}
