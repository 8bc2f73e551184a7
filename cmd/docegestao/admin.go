package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/docegestao/docegestao/internal/adapter/postgres"
	"github.com/docegestao/docegestao/internal/config"
	"github.com/docegestao/docegestao/internal/domain/account"
	"github.com/docegestao/docegestao/internal/domain/principal"
	"github.com/docegestao/docegestao/internal/logger"
	"github.com/docegestao/docegestao/internal/service"
)

// runAdmin dispatches admin subcommands (seed-admin, list-accounts, set-license).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "seed-admin":
		return runAdminSeed(args[1:])
	case "list-accounts":
		return runAdminListAccounts(args[1:])
	case "set-license":
		return runAdminSetLicense(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: docegestao admin <command> [options]

Commands:
  seed-admin      Create or promote an admin account
  list-accounts   List all accounts with their licenses
  set-license     Change an account's license plan
  help            Show this help message

Examples:
  docegestao admin seed-admin --email admin@localhost --name "Admin"
  docegestao admin list-accounts
  docegestao admin set-license --uid <uid> --type anual --status active --expires 2027-01-01
`)
}

func loadAdminDeps() (*service.AuthService, *service.AdminService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Driver != "postgres" {
		return nil, nil, nil, fmt.Errorf("admin commands require the postgres driver")
	}

	log := logger.New(cfg.Logging)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	backend := postgres.NewStore(pool)
	authSvc := service.NewAuthService(backend, nil, &cfg.Auth, log)
	adminSvc := service.NewAdminService(backend, authSvc, log)

	cleanup := func() {
		pool.Close()
	}
	return authSvc, adminSvc, cleanup, nil
}

func runAdminSeed(args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	email := fs.String("email", "", "account email address (required)")
	name := fs.String("name", "", "display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	authSvc, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	acc, err := authSvc.SeedAdmin(context.Background(), *email, *name, pass)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Admin account ready: %s (uid=%s)\n", acc.Email, acc.UID)
	return nil
}

func runAdminListAccounts(args []string) error {
	fs := flag.NewFlagSet("list-accounts", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, adminSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := adminSvc.ListAccounts(context.Background())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "UID\tEMAIL\tNAME\tADMIN\tPLAN\tSTATUS\tEXPIRES")
	for i := range accounts {
		expires := "-"
		if !accounts[i].License.ExpirationDate.IsZero() {
			expires = accounts[i].License.ExpirationDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			accounts[i].UID, accounts[i].Email, accounts[i].DisplayName, accounts[i].IsAdmin,
			accounts[i].License.Type, accounts[i].License.Status, expires)
	}
	return w.Flush()
}

func runAdminSetLicense(args []string) error {
	fs := flag.NewFlagSet("set-license", flag.ContinueOnError)
	uid := fs.String("uid", "", "account uid (required)")
	licType := fs.String("type", "", "license type: trial, mensal, anual, vitalicia (required)")
	status := fs.String("status", "active", "license status: trial, active, blocked, expired")
	expires := fs.String("expires", "", "expiration date YYYY-MM-DD (empty for none)")
	autoRenew := fs.Bool("auto-renew", false, "renew automatically on expiry")
	notes := fs.String("notes", "", "administrative notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *uid == "" {
		return fmt.Errorf("--uid is required")
	}
	if *licType == "" {
		return fmt.Errorf("--type is required")
	}

	req := account.UpdateLicenseRequest{
		Type:       account.LicenseType(*licType),
		Status:     account.LicenseStatus(*status),
		AutoRenew:  *autoRenew,
		AdminNotes: *notes,
	}
	if *expires != "" {
		t, err := time.Parse("2006-01-02", *expires)
		if err != nil {
			return fmt.Errorf("parse --expires: %w", err)
		}
		req.ExpirationDate = t
	}

	_, adminSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	operator := &principal.Principal{ID: "cli", Email: "cli@localhost", Name: "CLI", IsAdmin: true}
	lic, err := adminSvc.UpdateLicense(context.Background(), operator, *uid, req)
	if err != nil {
		return fmt.Errorf("set license: %w", err)
	}

	fmt.Fprintf(os.Stderr, "License updated: type=%s status=%s\n", lic.Type, lic.Status)
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
