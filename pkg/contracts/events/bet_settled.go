package events

import "time"

// Evento emitido pelo settlement-worker depois que o lote de liquidação foi gravado
type BetSettled struct {
	BetID    string    `json:"betId"`
	LeagueID string    `json:"leagueId"`
	UserID   string    `json:"userId"`
	WalletID string    `json:"walletId"`
	Week     int       `json:"week"`
	Status   string    `json:"status"` // "won" | "lost"
	Stake    string    `json:"stake"`
	Payout   string    `json:"payout,omitempty"`
	Ts       time.Time `json:"ts"`
}
