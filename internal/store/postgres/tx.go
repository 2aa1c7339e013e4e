package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/store"
)

type tx struct{ tx *sql.Tx }

var _ store.Tx = (*tx)(nil)

// InsertWallet usa ON CONFLICT para não falhar quando dois requests criam a mesma carteira
func (t *tx) InsertWallet(ctx context.Context, w *domain.Wallet) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO wallets (id, league_id, user_id, display_name, balance, starting_bankroll, pnl, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,1,$8,$9)
		ON CONFLICT (league_id, user_id) DO NOTHING`,
		w.ID, w.LeagueID, w.UserID, w.DisplayName, w.Balance, w.StartingBankroll, w.PnL, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		w.Version = 1
	}
	return n == 1, nil
}

// LockWallet trava a linha da carteira (lock pessimista) até o fim da transação
func (t *tx) LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id=$1 FOR UPDATE`, walletID)
	return scanWallet(row)
}

func (t *tx) UpdateWallet(ctx context.Context, w *domain.Wallet) error {
	err := t.tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance=$2, pnl=$3, display_name=$4, updated_at=$5, version = version + 1
		WHERE id=$1
		RETURNING version`,
		w.ID, w.Balance, w.PnL, w.DisplayName, w.UpdatedAt,
	).Scan(&w.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (t *tx) InsertBet(ctx context.Context, b *domain.Bet) error {
	legs, err := json.Marshal(b.Legs)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO bets (id, wallet_id, league_id, user_id, display_name, week, stake, combined_odds, bet_type, status, legs, payout, created_at, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.WalletID, b.LeagueID, b.UserID, b.DisplayName, b.Week, b.Stake, b.CombinedOdds, b.Type,
		string(b.Status), legs, nullDecimal(b.Payout), b.CreatedAt, b.SettledAt,
	)
	return err
}

// MarkSettled é um compare-and-set: só altera se a aposta ainda estiver open
func (t *tx) MarkSettled(ctx context.Context, b *domain.Bet) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE bets SET status=$2, payout=$3, settled_at=$4
		WHERE id=$1 AND status='open'`,
		b.ID, string(b.Status), nullDecimal(b.Payout), b.SettledAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *tx) ListOpenBets(ctx context.Context, leagueID string) ([]*domain.Bet, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE league_id=$1 AND status='open' ORDER BY created_at ASC, id ASC`, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func scanBets(rows *sql.Rows) ([]*domain.Bet, error) {
	var out []*domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBet(r scanner) (*domain.Bet, error) {
	var (
		b       domain.Bet
		status  string
		legs    []byte
		payout  decimal.NullDecimal
		settled sql.NullTime
	)
	err := r.Scan(&b.ID, &b.WalletID, &b.LeagueID, &b.UserID, &b.DisplayName, &b.Week, &b.Stake,
		&b.CombinedOdds, &b.Type, &status, &legs, &payout, &b.CreatedAt, &settled)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BetStatus(status)
	if err := json.Unmarshal(legs, &b.Legs); err != nil {
		return nil, err
	}
	if payout.Valid {
		p := payout.Decimal
		b.Payout = &p
	}
	if settled.Valid {
		ts := settled.Time
		b.SettledAt = &ts
	}
	return &b, nil
}
