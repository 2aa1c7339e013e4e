package postgres

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/shared/db"
	"github.com/radieske/fantasy-betbook/internal/store"
)

// setupDB sobe um Postgres descartável e aplica as migrações
func setupDB(t *testing.T) (*sql.DB, string) {
	if testing.Short() {
		t.Skip("integration test: requires docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("betbook_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "betbook-store",
			"test-name": t.Name(),
			"cleanup":   "auto",
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	v, err := MigrateUp(dsn)
	require.NoError(t, err)
	require.Equal(t, uint(1), v)

	conn, err := db.ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, dsn
}

func newWallet(league, user string, balance int64) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID: uuid.NewString(), LeagueID: league, UserID: user, DisplayName: user,
		Balance: decimal.NewFromInt(balance), StartingBankroll: decimal.NewFromInt(balance),
		CreatedAt: now, UpdatedAt: now,
	}
}

func newBet(w *domain.Wallet, week int, stake int64) *domain.Bet {
	return &domain.Bet{
		ID: uuid.NewString(), WalletID: w.ID, LeagueID: w.LeagueID, UserID: w.UserID, DisplayName: w.DisplayName,
		Week: week, Stake: decimal.NewFromInt(stake), CombinedOdds: 2.5, Type: string(domain.LegPlayerTopPoints),
		Status: domain.BetOpen,
		Legs: []domain.Leg{{
			Type: domain.LegPlayerTopPoints, Description: "Josh Allen top scorer",
			Data: domain.LegData{PlayerID: "4984", PlayerName: "Josh Allen"}, Odds: 2.5,
		}},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPostgresStore_WalletAndBetLifecycle(t *testing.T) {
	conn, _ := setupDB(t)
	s := New(conn)
	ctx := context.Background()

	w := newWallet("L1", "u1", 1000)
	var created bool
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var err error
		created, err = tx.InsertWallet(ctx, w)
		return err
	}))
	assert.True(t, created)

	dup := newWallet("L1", "u1", 1000)
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var err error
		created, err = tx.InsertWallet(ctx, dup)
		return err
	}))
	assert.False(t, created)

	b := newBet(w, 3, 100)
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.Balance = locked.Balance.Sub(b.Stake)
		if err := tx.UpdateWallet(ctx, locked); err != nil {
			return err
		}
		assert.Equal(t, int64(2), locked.Version)
		return tx.InsertBet(ctx, b)
	}))

	got, err := s.FindWallet(ctx, "L1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "900", got.Balance.String())

	bets, err := s.ListBets(ctx, store.BetFilter{LeagueID: "L1", UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, b.Legs, bets[0].Legs)
	assert.Nil(t, bets[0].Payout)
	assert.Nil(t, bets[0].SettledAt)

	payout := decimal.NewFromInt(250)
	settledAt := time.Now().UTC()
	b.Status, b.Payout, b.SettledAt = domain.BetWon, &payout, &settledAt

	var first, second bool
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var err error
		first, err = tx.MarkSettled(ctx, b)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var err error
		second, err = tx.MarkSettled(ctx, b)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	won, err := s.ListBets(ctx, store.BetFilter{LeagueID: "L1", Status: domain.BetWon})
	require.NoError(t, err)
	require.Len(t, won, 1)
	require.NotNil(t, won[0].Payout)
	assert.Equal(t, "250", won[0].Payout.String())
}

func TestPostgresStore_LockWalletSerializesDebits(t *testing.T) {
	conn, _ := setupDB(t)
	s := New(conn)
	ctx := context.Background()

	w := newWallet("L1", "u1", 100)
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.InsertWallet(ctx, w)
		return err
	}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InTx(ctx, func(tx store.Tx) error {
				locked, err := tx.LockWallet(ctx, w.ID)
				if err != nil {
					return err
				}
				locked.Balance = locked.Balance.Sub(decimal.NewFromInt(10))
				return tx.UpdateWallet(ctx, locked)
			})
		}()
	}
	wg.Wait()

	got, err := s.FindWallet(ctx, "L1", "u1")
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), got.Balance.String())
	assert.Equal(t, int64(11), got.Version)
}

func TestPostgresStore_ResetLeagueAndLeaderboard(t *testing.T) {
	conn, _ := setupDB(t)
	s := New(conn)
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		for _, w := range []*domain.Wallet{newWallet("L1", "a", 900), newWallet("L1", "b", 1200), newWallet("L2", "a", 1000)} {
			if _, err := tx.InsertWallet(ctx, w); err != nil {
				return err
			}
		}
		return nil
	}))

	board, err := s.ListWallets(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "b", board[0].UserID)

	require.NoError(t, s.ResetLeague(ctx, "L1"))
	board, err = s.ListWallets(ctx, "L1")
	require.NoError(t, err)
	assert.Empty(t, board)

	_, err = s.FindWallet(ctx, "L2", "a")
	assert.NoError(t, err)
	_, err = s.FindWallet(ctx, "L1", "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMigrateDownAndStatus(t *testing.T) {
	_, dsn := setupDB(t)

	require.NoError(t, MigrateDown(dsn, 1))
	v, dirty, err := MigrateStatus(dsn)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)
}
