package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/rentiq/internal/adapter/auth"
	"github.com/neomorfeo/rentiq/internal/adapter/sqlite"
	"github.com/neomorfeo/rentiq/internal/config"
	"github.com/neomorfeo/rentiq/internal/domain"
)

// testEnv points the process at a temp database and quiet exporters.
func testEnv(t *testing.T, port string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "rentiq.db")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("PORT", port)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	return dbPath
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	return path
}

func loadConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(emptyEnvFile(t))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return cfg
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--env-file", emptyEnvFile(t)}, args...))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// TestRun exercises the real run() function end-to-end: OTel, River, HTTP
// server, and graceful shutdown.
func TestRun(t *testing.T) {
	testEnv(t, "19876")
	cfg := loadConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg) }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/openapi.json", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// Lease routes require a caller.
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/notifications", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/notifications failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	testEnv(t, "19877")
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	cfg := loadConfig(t)

	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	testEnv(t, "19878")
	t.Setenv("ACTIVATION_SCHEDULE", "every day")
	cfg := loadConfig(t)

	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid schedule, got nil")
	}
}

func TestMissingSecret(t *testing.T) {
	testEnv(t, "19879")
	t.Setenv("JWT_SECRET", "")

	if _, err := execute(t, "migrate"); err == nil {
		t.Fatal("expected error without JWT_SECRET, got nil")
	}
}

func TestMissingEnvFile(t *testing.T) {
	testEnv(t, "19885")

	root := newRootCmd()
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "migrate"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for a missing --env-file, got nil")
	}
}

func TestMigrate(t *testing.T) {
	testEnv(t, "19880")

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied") {
		t.Errorf("output = %q", out)
	}
}

func TestSeedAndToken(t *testing.T) {
	testEnv(t, "19881")

	out, err := execute(t, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, seedOwnerEmail) || !strings.Contains(out, seedTenantEmail) {
		t.Errorf("seed output = %q", out)
	}

	out, err = execute(t, "seed")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "already present") {
		t.Errorf("second seed output = %q", out)
	}

	out, err = execute(t, "token", "--email", seedOwnerEmail, "--ttl", "10m")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	caller, err := auth.NewVerifier([]byte("test-secret")).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("verifying minted token: %v", err)
	}
	if caller.Email != seedOwnerEmail || caller.Role != domain.RoleOwner {
		t.Errorf("caller = %+v", caller)
	}

	if _, err := execute(t, "token", "--email", "nobody@rentiq.local"); err == nil {
		t.Error("expected error for unknown account")
	}
}

func TestActivate(t *testing.T) {
	dbPath := testEnv(t, "19882")
	ctx := context.Background()
	now := time.Date(2025, time.March, 25, 8, 0, 0, 0, time.UTC)

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if _, err := seed(ctx, store, now); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	owner, err := store.GetAccountByEmail(ctx, seedOwnerEmail)
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	tenant, err := store.GetAccountByEmail(ctx, seedTenantEmail)
	if err != nil {
		t.Fatalf("tenant: %v", err)
	}
	property := domain.Property{
		ID: "prop-activate", OwnerID: owner.ID, Title: "Loft", Address: "3 Dong Khoi",
		PricePerMonth: decimal.NewFromInt(500), SecurityDeposit: decimal.NewFromInt(1000),
		IsAvailable: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateProperty(ctx, property); err != nil {
		t.Fatalf("property: %v", err)
	}
	start := civil.Date{Year: 2025, Month: time.April, Day: 1}
	err = store.Atomic(ctx, func(tx domain.LeaseTx) error {
		term := domain.Term{Start: start, End: civil.Date{Year: 2025, Month: time.June, Day: 30}}
		return tx.InsertLease(ctx, domain.NewLease("lease-queued", property, tenant.ID, term, domain.StatusPrebooked, now))
	})
	if err != nil {
		t.Fatalf("inserting lease: %v", err)
	}
	store.Close()

	out, err := execute(t, "activate", "--date", "2025-03-31")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !strings.Contains(out, "activated 0") {
		t.Errorf("day before start: output = %q", out)
	}

	out, err = execute(t, "activate", "--date", "2025-04-01")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !strings.Contains(out, "activated 1") || !strings.Contains(out, "activated lease-queued") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "activate", "--date", "01/04/2025"); err == nil {
		t.Error("expected error for malformed date")
	}
}
