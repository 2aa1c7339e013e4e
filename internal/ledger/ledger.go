// Package ledger concentra as regras de mutação de saldo e pnl das carteiras.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/fantasy-betbook/internal/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidStake      = errors.New("invalid stake")
	ErrEmptySlip         = errors.New("empty slip")
	ErrWeekUnavailable   = errors.New("week not loaded yet")
)

// DefaultBankroll é o saldo inicial de uma carteira nova
var DefaultBankroll = decimal.NewFromInt(1000)

// moneyPlaces é a precisão de valores monetários (centavos)
const moneyPlaces = 2

// NewWallet monta uma carteira com saldo = bankroll inicial e pnl zero
func NewWallet(id, leagueID, userID, displayName string, bankroll decimal.Decimal, now time.Time) *domain.Wallet {
	return &domain.Wallet{
		ID:               id,
		LeagueID:         leagueID,
		UserID:           userID,
		DisplayName:      displayName,
		Balance:          bankroll,
		StartingBankroll: bankroll,
		PnL:              decimal.Zero,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checa se a aposta pode ser colocada na carteira
func Validate(w *domain.Wallet, stake decimal.Decimal, legs []domain.Leg) error {
	if len(legs) == 0 {
		return ErrEmptySlip
	}
	// stake em centavos exatos; frações abaixo disso não são arredondadas
	if !stake.IsPositive() || !stake.Equal(stake.Round(moneyPlaces)) {
		return ErrInvalidStake
	}
	if stake.GreaterThan(w.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// Debit retira o stake do saldo; deve ser chamado após Validate
func Debit(w *domain.Wallet, stake decimal.Decimal, now time.Time) {
	w.Balance = w.Balance.Sub(stake)
	w.UpdatedAt = now
}

// Payout é o retorno bruto de uma aposta vencedora: stake * odds combinadas, em centavos
func Payout(stake decimal.Decimal, combinedOdds float64) decimal.Decimal {
	return stake.Mul(decimal.NewFromFloat(combinedOdds)).Round(moneyPlaces)
}

// SettleWon credita o payout e registra o lucro (payout - stake)
func SettleWon(w *domain.Wallet, b *domain.Bet, now time.Time) {
	payout := Payout(b.Stake, b.CombinedOdds)
	w.Balance = w.Balance.Add(payout)
	w.PnL = w.PnL.Add(payout.Sub(b.Stake))
	w.UpdatedAt = now

	b.Status = domain.BetWon
	b.Payout = &payout
	b.SettledAt = &now
}

// SettleLost não mexe no saldo (stake já saiu na colocação), só debita o pnl
func SettleLost(w *domain.Wallet, b *domain.Bet, now time.Time) {
	w.PnL = w.PnL.Sub(b.Stake)
	w.UpdatedAt = now

	b.Status = domain.BetLost
	b.Payout = nil
	b.SettledAt = &now
}
