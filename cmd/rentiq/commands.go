package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/neomorfeo/rentiq/internal/adapter/auth"
	"github.com/neomorfeo/rentiq/internal/adapter/fsm"
	"github.com/neomorfeo/rentiq/internal/adapter/river"
	"github.com/neomorfeo/rentiq/internal/app"
	"github.com/neomorfeo/rentiq/internal/domain"
	"github.com/neomorfeo/rentiq/internal/logging"
)

func (c *cli) activateCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Promote pre-booked leases starting on a day (default today)",
		Long:  "Runs one activation pass synchronously. Use --date to backfill a day the scheduler missed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			logger, err := logging.NewLogger(logging.Config{Component: "rentiq-activate", Level: c.cfg.LogLevel, Output: cmd.ErrOrStderr()})
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			activator := app.NewActivator(store, fsm.New(), logger, app.WithLocation(c.cfg.Location()))

			day := activator.Today()
			if date != "" {
				day, err = civil.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", date, err)
				}
			}

			report, err := activator.ActivateDue(ctx, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: activated %d, skipped %d\n", report.Day, len(report.Activated), len(report.Skipped))
			for _, id := range report.Activated {
				fmt.Fprintf(cmd.OutOrStdout(), "  activated %s\n", id)
			}
			for _, id := range report.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to activate, YYYY-MM-DD")
	return cmd
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply lease store and job queue migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := river.Migrate(cmd.Context(), store.DB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a caller token for an existing account (development only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := store.GetAccountByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("looking up %q: %w", email, err)
			}

			if ttl == 0 {
				ttl = c.cfg.TokenTTL
			}
			token, err := auth.NewIssuer([]byte(c.cfg.JWTSecret)).Issue(account, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// Demo accounts created by the seed command.
const (
	seedOwnerEmail  = "owner@rentiq.local"
	seedTenantEmail = "tenant@rentiq.local"
)

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo owner, tenant and property",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if _, err := store.GetAccountByEmail(ctx, seedOwnerEmail); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "demo data already present")
				return nil
			}

			ids, err := seed(ctx, store, time.Now())
			if err != nil {
				return err
			}
			for _, line := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

type seedStore interface {
	CreateAccount(ctx context.Context, a domain.Account) error
	CreateProperty(ctx context.Context, p domain.Property) error
}

func seed(ctx context.Context, store seedStore, now time.Time) ([]string, error) {
	owner := domain.Account{
		ID: uuid.NewString(), Email: seedOwnerEmail, Role: domain.RoleOwner,
		FirstName: "Lan", LastName: "Nguyen",
		IDNumber: "079185000123", IssuedBy: "Ho Chi Minh City Police",
		IssueDate:        civil.Date{Year: 2016, Month: time.May, Day: 12},
		PermanentAddress: "21 Le Loi, District 1, Ho Chi Minh City",
		CreatedAt:        now,
	}
	tenant := domain.Account{
		ID: uuid.NewString(), Email: seedTenantEmail, Role: domain.RoleTenant,
		FirstName: "Minh", LastName: "Tran",
		IDNumber: "001199004567", IssuedBy: "Ha Noi Police",
		IssueDate:        civil.Date{Year: 2019, Month: time.September, Day: 3},
		PermanentAddress: "8 Hang Bai, Hoan Kiem, Ha Noi",
		CreatedAt:        now,
	}
	for _, a := range []domain.Account{owner, tenant} {
		if err := store.CreateAccount(ctx, a); err != nil {
			return nil, fmt.Errorf("seeding account %s: %w", a.Email, err)
		}
	}

	property := domain.Property{
		ID: uuid.NewString(), OwnerID: owner.ID,
		Title:           "Two-bedroom apartment near Ben Thanh",
		Address:         "45 Nguyen Trai, District 1, Ho Chi Minh City",
		PricePerMonth:   decimal.RequireFromString("650.00"),
		SecurityDeposit: decimal.RequireFromString("1300.00"),
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("seeding property: %w", err)
	}

	return []string{
		"owner    " + owner.ID + " " + owner.Email,
		"tenant   " + tenant.ID + " " + tenant.Email,
		"property " + property.ID,
	}, nil
}
