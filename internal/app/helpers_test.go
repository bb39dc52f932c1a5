package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentiq/internal/adapter/fsm"
	"github.com/neomorfeo/rentiq/internal/adapter/sqlite"
	"github.com/neomorfeo/rentiq/internal/app"
	"github.com/neomorfeo/rentiq/internal/domain"
)

// --- Fakes ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

type stubRenderer struct {
	doc domain.Document
	err error
}

func (s *stubRenderer) Render(_ context.Context, d domain.LeaseDetail) (domain.Document, error) {
	if s.err != nil {
		return domain.Document{}, s.err
	}
	doc := s.doc
	if doc.Filename == "" {
		doc = domain.Document{Filename: "lease_" + d.Lease.ID + ".xlsx", ContentType: "application/octet-stream", Data: []byte("xlsx")}
	}
	return doc, nil
}

// --- Fixtures ---

var (
	owner = domain.Account{ID: "owner-1", Email: "owner@example.com", Role: domain.RoleOwner, FirstName: "Anh", LastName: "Nguyen"}
	// tenant's full name renders as "Tran Binh".
	tenant  = domain.Account{ID: "tenant-1", Email: "tenant@example.com", Role: domain.RoleTenant, FirstName: "Binh", LastName: "Tran"}
	tenant2 = domain.Account{ID: "tenant-2", Email: "tenant2@example.com", Role: domain.RoleTenant, FirstName: "Chi", LastName: "Le"}
	admin   = domain.Account{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, FirstName: "Dung", LastName: "Pham"}

	ownerCaller   = domain.Caller{AccountID: owner.ID, Email: owner.Email, Role: domain.RoleOwner}
	tenantCaller  = domain.Caller{AccountID: tenant.ID, Email: tenant.Email, Role: domain.RoleTenant}
	tenant2Caller = domain.Caller{AccountID: tenant2.ID, Email: tenant2.Email, Role: domain.RoleTenant}
	adminCaller   = domain.Caller{AccountID: admin.ID, Email: admin.Email, Role: domain.RoleAdmin}
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

type env struct {
	store     *sqlite.Store
	notifier  *recordingNotifier
	renderer  *stubRenderer
	leases    *app.LeaseService
	activator *app.Activator
	now       time.Time
}

// newEnv builds services over an in-memory store with two properties owned by
// owner, and a clock frozen at now.
func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, a := range []domain.Account{owner, tenant, tenant2, admin} {
		a.CreatedAt = now
		require.NoError(t, store.CreateAccount(ctx, a))
	}
	for _, id := range []string{"prop-1", "prop-2"} {
		require.NoError(t, store.CreateProperty(ctx, domain.Property{
			ID: id, OwnerID: owner.ID, Title: "Studio " + id, Address: "12 Hai Ba Trung",
			PricePerMonth:   decimal.RequireFromString("450.00"),
			SecurityDeposit: decimal.RequireFromString("900.00"),
			IsAvailable:     true, CreatedAt: now, UpdatedAt: now,
		}))
	}

	e := &env{store: store, notifier: &recordingNotifier{}, renderer: &stubRenderer{}, now: now}
	clock := app.WithClock(func() time.Time { return e.now })
	validator := fsm.New()
	e.leases = app.NewLeaseService(store, store, e.notifier, validator, e.renderer, nil, clock)
	e.activator = app.NewActivator(store, validator, nil, clock)
	return e
}

// putLease stores a lease directly, bypassing the engine's policy.
func (e *env) putLease(t *testing.T, id, propertyID, tenantID string, start, end civil.Date, status domain.LeaseStatus) domain.Lease {
	t.Helper()
	ctx := context.Background()

	var lease domain.Lease
	err := e.store.Atomic(ctx, func(tx domain.LeaseTx) error {
		p, err := tx.GetProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		lease = domain.NewLease(id, p, tenantID, domain.Term{Start: start, End: end}, status, e.now.Add(-time.Hour))
		if err := tx.InsertLease(ctx, lease); err != nil {
			return err
		}
		_, err = tx.RefreshAvailability(ctx, propertyID, e.now)
		return err
	})
	require.NoError(t, err)
	return lease
}

func (e *env) lease(t *testing.T, id string) domain.Lease {
	t.Helper()
	l, err := e.store.GetLease(context.Background(), id)
	require.NoError(t, err)
	return l
}

// requireInvariants checks that the property holds at most one ACTIVE and one
// PREBOOKED lease and that its availability flag matches its leases.
func (e *env) requireInvariants(t *testing.T, propertyID string) {
	t.Helper()
	ctx := context.Background()

	holding := 0
	for _, status := range domain.Statuses {
		leases, err := e.store.ListByOwnerAndStatus(ctx, owner.ID, status)
		require.NoError(t, err)

		count := 0
		for _, l := range leases {
			if l.PropertyID == propertyID {
				count++
			}
		}
		if status == domain.StatusActive || status == domain.StatusPrebooked {
			require.LessOrEqual(t, count, 1, "more than one %s lease on %s", status, propertyID)
		}
		if status.HoldsProperty() {
			holding += count
		}
	}

	p, err := e.store.GetProperty(ctx, propertyID)
	require.NoError(t, err)
	require.Equal(t, holding == 0, p.IsAvailable, "availability of %s out of sync", propertyID)
}

func requireKind(t *testing.T, err error, kind domain.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "unexpected kind for %v", err)
	require.Equal(t, code, domain.Code(err), "unexpected code for %v", err)
}

var errBoom = errors.New("boom")
