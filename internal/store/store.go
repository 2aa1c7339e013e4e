// Package store define o contrato de persistência de carteiras e apostas.
package store

import (
	"context"
	"errors"

	"github.com/radieske/fantasy-betbook/internal/domain"
)

var ErrNotFound = errors.New("not found")

// BetFilter filtra a listagem de apostas; campos vazios não filtram
type BetFilter struct {
	LeagueID string
	UserID   string
	Status   domain.BetStatus
	Limit    int
}

// Store é a porta de persistência. Escritas sempre passam por InTx.
type Store interface {
	// InTx executa fn numa transação única; qualquer erro descarta tudo
	InTx(ctx context.Context, fn func(tx Tx) error) error

	FindWallet(ctx context.Context, leagueID, userID string) (*domain.Wallet, error)
	// ListWallets ordena por saldo decrescente (leaderboard)
	ListWallets(ctx context.Context, leagueID string) ([]*domain.Wallet, error)
	// ListBets ordena da mais recente para a mais antiga
	ListBets(ctx context.Context, f BetFilter) ([]*domain.Bet, error)
	// ResetLeague apaga apostas e carteiras da liga
	ResetLeague(ctx context.Context, leagueID string) error
}

// Tx agrupa as operações feitas dentro de uma transação
type Tx interface {
	// InsertWallet cria a carteira; false se (league, user) já existir
	InsertWallet(ctx context.Context, w *domain.Wallet) (created bool, err error)
	// LockWallet lê a carteira com exclusão até o fim da transação
	LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
	UpdateWallet(ctx context.Context, w *domain.Wallet) error

	InsertBet(ctx context.Context, b *domain.Bet) error
	// MarkSettled grava o estado terminal só se a aposta ainda estiver open
	MarkSettled(ctx context.Context, b *domain.Bet) (bool, error)
	ListOpenBets(ctx context.Context, leagueID string) ([]*domain.Bet, error)
}
