//go:build integration

package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zoobzio/sqlwrap"
)

const postgresSchema = `
CREATE TABLE orders (
	id BIGINT PRIMARY KEY,
	status TEXT NOT NULL,
	paid BOOLEAN NOT NULL,
	ship_date DATE
);
CREATE TABLE items (
	id BIGINT PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	sku TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL
);
INSERT INTO orders (id, status, paid, ship_date) VALUES
	(1, 'PAID', true, '2024-01-01'),
	(2, 'NEW', false, NULL),
	(3, 'PAID', true, '2024-02-10'),
	(4, 'PAID', false, NULL);
INSERT INTO items (id, order_id, sku, price) VALUES
	(1, 1, 'A', 12.50),
	(2, 1, 'C', 1.00),
	(3, 2, 'A', 3.00),
	(4, 3, 'B', 7.25),
	(5, 4, 'C', 2.00);
`

// setupPostgres creates a PostgreSQL container and returns a seeded executor.
func setupPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}
	return New(db)
}

func TestPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	build := func() *sqlwrap.Wrapper {
		return sqlwrap.New(db, sqlwrap.WithDialect(sqlwrap.Postgres)).
			From(sqlwrap.Table[shopOrder](), "").
			InnerJoin(sqlwrap.Table[shopItem](), "").
			On(2, "OrderID", 1, "ID").
			Distinct().
			Select(1, "ID", "Status", "Paid", "ShipDate").
			Eq(1, "Status", "PAID").
			In(2, "SKU", []string{"A", "B"}).
			OrderByDesc(1, "ID")
	}

	t.Run("page with numbered placeholders", func(t *testing.T) {
		page, err := sqlwrap.QueryPage[shopOrder](ctx, build(), 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, int64(2), page.Pages)
		require.Len(t, page.Records, 1)
		assert.Equal(t, int64(3), page.Records[0].ID)
		assert.Equal(t, "2024-02-10", page.Records[0].ShipDate.String())
	})

	t.Run("numeric into decimal", func(t *testing.T) {
		item, err := sqlwrap.QueryOne[shopItem](ctx,
			sqlwrap.New(db, sqlwrap.WithDialect(sqlwrap.Postgres)).
				From(sqlwrap.Table[shopItem](), "i").
				Eq(1, "SKU", "B"))
		require.NoError(t, err)
		assert.Equal(t, "7.25", item.Price.StringFixed(2))
	})

	t.Run("string aggregation", func(t *testing.T) {
		row, err := sqlwrap.New(db, sqlwrap.WithDialect(sqlwrap.Postgres)).
			From(sqlwrap.Table[shopItem](), "i").
			Select(1, "OrderID").
			GroupConcat(1, "SKU", "skus").
			Eq(1, "OrderID", 1).
			GroupBy(1, "OrderID").
			QueryMap(ctx)
		require.NoError(t, err)
		assert.Contains(t, row["skus"], "A")
	})

	t.Run("undefined column", func(t *testing.T) {
		_, err := sqlwrap.New(db, sqlwrap.WithDialect(sqlwrap.Postgres)).
			From(sqlwrap.Table[shopOrder](), "o").
			Eq(1, "missing", 1).
			QueryMaps(ctx)

		var driverErr *DriverError
		require.True(t, errors.As(err, &driverErr))
		assert.True(t, driverErr.UndefinedObject())
	})
}
