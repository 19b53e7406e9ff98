package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ticket-checkout/internal/database"
	"ticket-checkout/internal/models"
)

var (
	testDB     *sqlx.DB
	testDBErr  error
	testDBOnce sync.Once
)

// setupTestDB starts one postgres container for the package and returns a
// migrated connection. The container is reaped by testcontainers when the
// test binary exits.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Database tests require docker; skipped in short mode")
	}

	testDBOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.RunContainer(ctx,
			testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
			postgres.WithDatabase("checkout"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			testDBErr = err
			return
		}

		connStr, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
		if err != nil {
			testDBErr = err
			return
		}

		conn, err := database.NewConnection(ctx, database.Config{URL: connStr})
		if err != nil {
			testDBErr = err
			return
		}

		if err := conn.RunMigrations(ctx); err != nil {
			testDBErr = err
			return
		}

		testDB = conn.DB
	})

	if testDBErr != nil {
		t.Skipf("Database tests require docker: %v", testDBErr)
	}

	return testDB
}

func createTestBuyer(t *testing.T, db *sqlx.DB) *models.Buyer {
	t.Helper()

	buyer, err := NewBuyerRepository(db).Create(context.Background())
	require.NoError(t, err)
	return buyer
}

func createTestTicketSet(t *testing.T, db *sqlx.DB, title string, price, stock int) *models.TicketSet {
	t.Helper()

	ts := &models.TicketSet{Title: title, Price: price, Stock: stock}
	require.NoError(t, NewTicketSetRepository(db).Create(context.Background(), ts))
	return ts
}
