package otel

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// leaseDBPragmas are applied to every connection opened by OpenDB.
var leaseDBPragmas = []struct {
	stmt string
	what string
}{
	{"PRAGMA journal_mode=WAL", "enabling WAL"},
	{"PRAGMA foreign_keys=ON", "enabling foreign keys"},
	{"PRAGMA busy_timeout=5000", "setting busy timeout"},
}

// OpenDB opens the lease database at path with statement tracing and pool
// metrics. The handle is shared by sqlite.NewFromDB and the River client.
func OpenDB(path string) (*sql.DB, error) {
	attrs := otelsql.WithAttributes(semconv.DBSystemSqlite)

	db, err := otelsql.Open("sqlite", path, attrs,
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening lease database: %w", err)
	}

	// One connection: lease transactions and River jobs never interleave.
	db.SetMaxOpenConns(1)

	for _, p := range leaseDBPragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering pool metrics: %w", err)
	}
	return db, nil
}
