package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-checkout/internal/models"
)

func TestTicketSetRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketSetRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		ts      *models.TicketSet
		wantErr bool
	}{
		{
			name: "valid ticket set",
			ts:   &models.TicketSet{Title: "Early Bird", Price: 2500, Stock: 10},
		},
		{
			name:    "missing title",
			ts:      &models.TicketSet{Price: 2500, Stock: 10},
			wantErr: true,
		},
		{
			name:    "negative stock",
			ts:      &models.TicketSet{Title: "Broken", Price: 2500, Stock: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.ts)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, tt.ts.ID)
			assert.False(t, tt.ts.CreatedAt.IsZero())

			got, err := repo.GetByID(ctx, tt.ts.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.ts.Title, got.Title)
			assert.Equal(t, tt.ts.Stock, got.Stock)
		})
	}
}

func TestTicketSetRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewTicketSetRepository(db).GetByID(context.Background(), 999999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTicketSetRepository_DecrementStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketSetRepository(db)
	ctx := context.Background()

	ts := createTestTicketSet(t, db, "Decrement", 1000, 5)

	require.NoError(t, repo.DecrementStock(ctx, ts.ID, 3))

	got, err := repo.GetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	err = repo.DecrementStock(ctx, ts.ID, 3)
	var oos *models.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, 2, oos.Available)
	assert.Equal(t, 3, oos.Requested)

	err = repo.DecrementStock(ctx, 999999, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = repo.DecrementStock(ctx, ts.ID, 0)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTicketSetRepository_DecrementStock_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketSetRepository(db)
	ctx := context.Background()

	ts := createTestTicketSet(t, db, "Contended", 1000, 10)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DecrementStock(ctx, ts.ID, 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, models.ErrOutOfStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, rejected)

	got, err := repo.GetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketSetRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	ts := createTestTicketSet(t, db, "Rollback", 1000, 4)
	boom := errors.New("boom")

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.DecrementStock(ctx, ts.ID, 4))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestTransactor_NestedCallsJoin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketSetRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	ts := createTestTicketSet(t, db, "Nested", 1000, 4)

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := tx.RunInTx(ctx, func(ctx context.Context) error {
			return repo.DecrementStock(ctx, ts.ID, 1)
		}); err != nil {
			return err
		}
		return errors.New("outer failure")
	})
	require.Error(t, err)

	got, err := repo.GetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}
