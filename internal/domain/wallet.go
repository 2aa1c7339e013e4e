package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet é a conta de um participante dentro de uma liga (uma por league+user)
// Balance: saldo disponível para apostar
// StartingBankroll: valor inicial concedido, nunca muda
// PnL: lucro/prejuízo realizado, só alterado na liquidação
type Wallet struct {
	ID               string          `json:"id"`
	LeagueID         string          `json:"leagueId"`
	UserID           string          `json:"userId"`
	DisplayName      string          `json:"displayName"`
	Balance          decimal.Decimal `json:"balance"`
	StartingBankroll decimal.Decimal `json:"startingBankroll"`
	PnL              decimal.Decimal `json:"pnl"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Clone retorna uma cópia independente da carteira
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
