package river_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/rentiq/internal/adapter/river"
	"github.com/neomorfeo/rentiq/internal/domain"
)

// --- Fakes ---

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []domain.Notification
}

func (f *fakeDeliverer) Deliver(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, n)
	return nil
}

func (f *fakeDeliverer) all() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.delivered...)
}

type fakeActivator struct {
	mu    sync.Mutex
	today civil.Date
	days  []civil.Date
}

func (f *fakeActivator) Today() civil.Date { return f.today }

func (f *fakeActivator) ActivateDue(_ context.Context, day civil.Date) (domain.ActivationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days = append(f.days, day)
	return domain.ActivationReport{Day: day}, nil
}

func (f *fakeActivator) calls() []civil.Date {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]civil.Date(nil), f.days...)
}

// --- Setup ---

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func startClient(t *testing.T, deps riveradapter.Deps) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()
	ctx := context.Background()

	client, err := riveradapter.Setup(ctx, setupTestDB(t), deps)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	events, cancel := client.Subscribe(goriver.EventKindJobCompleted, goriver.EventKindJobFailed, goriver.EventKindJobCancelled)
	t.Cleanup(cancel)

	if err := client.Start(ctx); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, events
}

func waitFor(t *testing.T, events <-chan *goriver.Event, kind string) *goriver.Event {
	t.Helper()
	timeout := time.After(15 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Job.Kind == kind {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s job", kind)
			return nil
		}
	}
}

// --- Tests ---

func TestPublisher_Notify_DeliversSnapshot(t *testing.T) {
	deliverer := &fakeDeliverer{}
	client, events := startClient(t, riveradapter.Deps{Deliverer: deliverer, Activator: &fakeActivator{}})

	created := time.Date(2025, 6, 20, 9, 30, 0, 0, time.UTC)
	n := domain.Notification{
		ID: "n-42", RecipientID: "owner-1", Title: "Lease request",
		Message: "New lease request from Tran Binh!", Type: domain.NotificationRentalRequest,
		CreatedAt: created,
	}

	if err := riveradapter.NewPublisher(client).Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	event := waitFor(t, events, "notification.deliver")
	if event.Kind != goriver.EventKindJobCompleted {
		t.Fatalf("event kind = %q, want completed", event.Kind)
	}

	argsStr := string(event.Job.EncodedArgs)
	for _, want := range []string{`"id":"n-42"`, `"recipient_id":"owner-1"`, `"type":"RENTAL_REQUEST"`} {
		if !strings.Contains(argsStr, want) {
			t.Errorf("encoded args missing %s, got: %s", want, argsStr)
		}
	}

	got := deliverer.all()
	if len(got) != 1 {
		t.Fatalf("delivered %d notifications, want 1", len(got))
	}
	if got[0].Message != n.Message || !got[0].CreatedAt.Equal(created) || got[0].Type != n.Type {
		t.Errorf("delivered %+v, want %+v", got[0], n)
	}
}

func TestActivationWorker_ExplicitDay(t *testing.T) {
	activator := &fakeActivator{today: civil.Date{Year: 2025, Month: time.June, Day: 20}}
	client, events := startClient(t, riveradapter.Deps{Deliverer: &fakeDeliverer{}, Activator: activator})

	if _, err := client.Insert(context.Background(), riveradapter.ActivationJobArgs{Day: "2025-07-01"}, nil); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	waitFor(t, events, "lease.activate")

	calls := activator.calls()
	want := civil.Date{Year: 2025, Month: time.July, Day: 1}
	if len(calls) != 1 || calls[0] != want {
		t.Errorf("ActivateDue calls = %v, want [%s]", calls, want)
	}
}

func TestActivationWorker_DefaultsToToday(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.July, Day: 1}
	activator := &fakeActivator{today: today}
	client, events := startClient(t, riveradapter.Deps{Deliverer: &fakeDeliverer{}, Activator: activator})

	if _, err := client.Insert(context.Background(), riveradapter.ActivationJobArgs{}, nil); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	waitFor(t, events, "lease.activate")

	if calls := activator.calls(); len(calls) != 1 || calls[0] != today {
		t.Errorf("ActivateDue calls = %v, want [%s]", calls, today)
	}
}

func TestActivationWorker_MalformedDayIsCancelled(t *testing.T) {
	activator := &fakeActivator{}
	client, events := startClient(t, riveradapter.Deps{Deliverer: &fakeDeliverer{}, Activator: activator})

	if _, err := client.Insert(context.Background(), riveradapter.ActivationJobArgs{Day: "01/07/2025"}, nil); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	event := waitFor(t, events, "lease.activate")
	if event.Kind != goriver.EventKindJobCancelled {
		t.Errorf("event kind = %q, want cancelled", event.Kind)
	}
	if calls := activator.calls(); len(calls) != 0 {
		t.Errorf("ActivateDue should not run, got %v", calls)
	}
}

func TestSetup_PeriodicActivationRunsOnStart(t *testing.T) {
	// Once a year, so only RunOnStart can fire during the test.
	schedule, err := riveradapter.ParseSchedule("0 0 1 1 *", time.UTC)
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}

	today := civil.Date{Year: 2025, Month: time.July, Day: 1}
	activator := &fakeActivator{today: today}
	_, events := startClient(t, riveradapter.Deps{Deliverer: &fakeDeliverer{}, Activator: activator, Schedule: schedule})

	waitFor(t, events, "lease.activate")
	if calls := activator.calls(); len(calls) == 0 || calls[0] != today {
		t.Errorf("ActivateDue calls = %v, want [%s]", calls, today)
	}
}

func TestParseSchedule(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	schedule, err := riveradapter.ParseSchedule("35 10 * * *", loc)
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}

	// 03:00 UTC is 10:00 in UTC+7; the next run is 10:35 local, 03:35 UTC.
	next := schedule.Next(time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC))
	if want := time.Date(2025, 7, 1, 3, 35, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next.UTC(), want)
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	if _, err := riveradapter.ParseSchedule("every day", nil); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
}

