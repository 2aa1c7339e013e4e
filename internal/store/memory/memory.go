// Package memory implementa store.Store em memória.
// Transações são serializadas por um mutex e as escritas só ficam visíveis no commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/store"
)

type betRow struct {
	bet *domain.Bet
	seq int64
}

type Store struct {
	mu      sync.Mutex
	wallets map[string]*domain.Wallet
	byKey   map[string]string // league/user -> walletID
	bets    map[string]betRow
	seq     int64

	faults map[string]error
}

func New() *Store {
	return &Store{
		wallets: make(map[string]*domain.Wallet),
		byKey:   make(map[string]string),
		bets:    make(map[string]betRow),
		faults:  make(map[string]error),
	}
}

// FailOn faz a operação op (nome do método de Tx ou "Commit") falhar com err; nil remove a falha
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func walletKey(leagueID, userID string) string { return leagueID + "/" + userID }

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{
		s:       s,
		wallets: make(map[string]*domain.Wallet),
		byKey:   make(map[string]string),
		bets:    make(map[string]*domain.Bet),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.faults["Commit"]; err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) FindWallet(ctx context.Context, leagueID, userID string) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[walletKey(leagueID, userID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.wallets[id].Clone(), nil
}

func (s *Store) ListWallets(ctx context.Context, leagueID string) ([]*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Wallet{}
	for _, w := range s.wallets {
		if w.LeagueID == leagueID {
			out = append(out, w.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Balance.Cmp(out[j].Balance); c != 0 {
			return c > 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListBets(ctx context.Context, f store.BetFilter) ([]*domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]betRow, 0, len(s.bets))
	for _, r := range s.bets {
		if f.LeagueID != "" && r.bet.LeagueID != f.LeagueID {
			continue
		}
		if f.UserID != "" && r.bet.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.bet.Status != f.Status {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].bet.CreatedAt.Equal(rows[j].bet.CreatedAt) {
			return rows[i].bet.CreatedAt.After(rows[j].bet.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	out := make([]*domain.Bet, len(rows))
	for i, r := range rows {
		out[i] = r.bet.Clone()
	}
	return out, nil
}

func (s *Store) ResetLeague(ctx context.Context, leagueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.bets {
		if r.bet.LeagueID == leagueID {
			delete(s.bets, id)
		}
	}
	for id, w := range s.wallets {
		if w.LeagueID == leagueID {
			delete(s.byKey, walletKey(w.LeagueID, w.UserID))
			delete(s.wallets, id)
		}
	}
	return nil
}

// tx guarda as escritas pendentes; leituras consultam primeiro o que já foi escrito na transação
type tx struct {
	s        *Store
	wallets  map[string]*domain.Wallet
	byKey    map[string]string
	bets     map[string]*domain.Bet
	betOrder []string
}

func (t *tx) fault(op string) error { return t.s.faults[op] }

func (t *tx) wallet(id string) (*domain.Wallet, bool) {
	if w, ok := t.wallets[id]; ok {
		return w, true
	}
	w, ok := t.s.wallets[id]
	return w, ok
}

func (t *tx) bet(id string) (*domain.Bet, bool) {
	if b, ok := t.bets[id]; ok {
		return b, true
	}
	r, ok := t.s.bets[id]
	return r.bet, ok
}

func (t *tx) InsertWallet(ctx context.Context, w *domain.Wallet) (bool, error) {
	if err := t.fault("InsertWallet"); err != nil {
		return false, err
	}
	k := walletKey(w.LeagueID, w.UserID)
	if _, ok := t.s.byKey[k]; ok {
		return false, nil
	}
	if _, ok := t.byKey[k]; ok {
		return false, nil
	}
	t.byKey[k] = w.ID
	t.wallets[w.ID] = w.Clone()
	return true, nil
}

func (t *tx) LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if err := t.fault("LockWallet"); err != nil {
		return nil, err
	}
	w, ok := t.wallet(walletID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return w.Clone(), nil
}

func (t *tx) UpdateWallet(ctx context.Context, w *domain.Wallet) error {
	if err := t.fault("UpdateWallet"); err != nil {
		return err
	}
	if _, ok := t.wallet(w.ID); !ok {
		return store.ErrNotFound
	}
	c := w.Clone()
	c.Version++
	w.Version = c.Version
	t.wallets[w.ID] = c
	return nil
}

func (t *tx) InsertBet(ctx context.Context, b *domain.Bet) error {
	if err := t.fault("InsertBet"); err != nil {
		return err
	}
	if _, ok := t.wallet(b.WalletID); !ok {
		return store.ErrNotFound
	}
	t.bets[b.ID] = b.Clone()
	t.betOrder = append(t.betOrder, b.ID)
	return nil
}

func (t *tx) MarkSettled(ctx context.Context, b *domain.Bet) (bool, error) {
	if err := t.fault("MarkSettled"); err != nil {
		return false, err
	}
	cur, ok := t.bet(b.ID)
	if !ok || cur.Status != domain.BetOpen {
		return false, nil
	}
	next := cur.Clone()
	next.Status = b.Status
	next.Payout = b.Clone().Payout
	next.SettledAt = b.Clone().SettledAt
	t.bets[b.ID] = next
	return true, nil
}

func (t *tx) ListOpenBets(ctx context.Context, leagueID string) ([]*domain.Bet, error) {
	if err := t.fault("ListOpenBets"); err != nil {
		return nil, err
	}
	rows := []betRow{}
	for id, r := range t.s.bets {
		b := r.bet
		if staged, ok := t.bets[id]; ok {
			b = staged
		}
		if b.LeagueID == leagueID && b.Status == domain.BetOpen {
			rows = append(rows, betRow{bet: b, seq: r.seq})
		}
	}
	for _, id := range t.betOrder {
		if _, ok := t.s.bets[id]; ok {
			continue
		}
		b := t.bets[id]
		if b.LeagueID == leagueID && b.Status == domain.BetOpen {
			rows = append(rows, betRow{bet: b, seq: t.s.seq + 1})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*domain.Bet, len(rows))
	for i, r := range rows {
		out[i] = r.bet.Clone()
	}
	return out, nil
}

func (t *tx) commit() {
	for k, id := range t.byKey {
		t.s.byKey[k] = id
	}
	for id, w := range t.wallets {
		t.s.wallets[id] = w
	}
	for _, id := range t.betOrder {
		t.s.seq++
		t.s.bets[id] = betRow{bet: t.bets[id], seq: t.s.seq}
		delete(t.bets, id)
	}
	for id, b := range t.bets {
		r := t.s.bets[id]
		r.bet = b
		t.s.bets[id] = r
	}
}
