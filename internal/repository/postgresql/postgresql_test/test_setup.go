package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/careroute/tour-backend-go/internal/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id          BIGSERIAL PRIMARY KEY,
	first_name  TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	area        TEXT,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS patients (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	street      TEXT NOT NULL DEFAULT '',
	zip         TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	phone1      TEXT,
	phone2      TEXT,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS appointments (
	id                  BIGSERIAL PRIMARY KEY,
	patient_id          BIGINT NOT NULL,
	weekday             TEXT NOT NULL,
	calendar_week       INT NOT NULL,
	visit_type          TEXT NOT NULL,
	employee_id         BIGINT,
	tour_employee_id    BIGINT,
	origin_employee_id  BIGINT,
	area                TEXT,
	time                TEXT,
	info                TEXT NOT NULL DEFAULT '',
	duration            INT NOT NULL DEFAULT 0,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS routes (
	id              BIGSERIAL PRIMARY KEY,
	employee_id     BIGINT,
	area            TEXT,
	weekday         TEXT NOT NULL,
	calendar_week   INT NOT NULL,
	route_order     JSONB NOT NULL DEFAULT '[]',
	total_duration  INT NOT NULL DEFAULT 0,
	total_distance  DOUBLE PRECISION NOT NULL DEFAULT 0,
	polyline        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// TestDatabaseSetup holds the connection to the test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and creates the schema.
// It returns nil when no test database is configured.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, database.PoolConfig{DSN: dsn, MaxConns: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// TruncateAllTables removes all rows and resets the id sequences
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"routes",
		"appointments",
		"patients",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
