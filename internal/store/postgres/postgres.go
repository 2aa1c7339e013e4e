// Package postgres implementa store.Store sobre Postgres (lib/pq via database/sql).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/store"
)

// Store implementa a persistência de carteiras e apostas
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

var _ store.Store = (*Store)(nil)

// InTx abre uma transação, executa fn e faz commit; em erro faz rollback
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

const walletColumns = `id, league_id, user_id, display_name, balance, starting_bankroll, pnl, version, created_at, updated_at`

const betColumns = `id, wallet_id, league_id, user_id, display_name, week, stake, combined_odds, bet_type, status, legs, payout, created_at, settled_at`

func (s *Store) FindWallet(ctx context.Context, leagueID, userID string) (*domain.Wallet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE league_id=$1 AND user_id=$2`, leagueID, userID)
	return scanWallet(row)
}

func (s *Store) ListWallets(ctx context.Context, leagueID string) ([]*domain.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE league_id=$1 ORDER BY balance DESC, created_at ASC`, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) ListBets(ctx context.Context, f store.BetFilter) ([]*domain.Bet, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.LeagueID != "" {
		add("league_id=$%d", f.LeagueID)
	}
	if f.UserID != "" {
		add("user_id=$%d", f.UserID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}

	q := `SELECT ` + betColumns + ` FROM bets`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

// ResetLeague apaga apostas e carteiras da liga numa única transação
func (s *Store) ResetLeague(ctx context.Context, leagueID string) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM bets WHERE league_id=$1`, leagueID); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM wallets WHERE league_id=$1`, leagueID); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWallet(r scanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := r.Scan(&w.ID, &w.LeagueID, &w.UserID, &w.DisplayName, &w.Balance, &w.StartingBankroll,
		&w.PnL, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
