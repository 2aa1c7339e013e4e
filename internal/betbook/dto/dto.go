// Package dto reúne os formatos de request/response da API do betbook.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/fantasy-betbook/internal/domain"
)

// OpenSessionRequest identifica o participante por userId ou username
type OpenSessionRequest struct {
	UserID      string `json:"userId"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName"`
}

type SessionResponse struct {
	Wallet *domain.Wallet `json:"wallet"`
	Slip   SlipResponse   `json:"slip"`
}

// AddLegRequest identifica a seleção; as odds vêm sempre do quadro corrente
type AddLegRequest struct {
	Type           domain.LegType `json:"type"`
	MatchupID      int            `json:"matchupId,omitempty"`
	WinnerRosterID int            `json:"winnerRosterId,omitempty"`
	RosterID       int            `json:"rosterId,omitempty"`
	PlayerID       string         `json:"playerId,omitempty"`
}

type SlipResponse struct {
	Legs         []domain.Leg `json:"legs"`
	CombinedOdds float64      `json:"combinedOdds"`
	Type         string       `json:"type,omitempty"`
	Changed      *bool        `json:"changed,omitempty"`
}

// PlaceRequest aceita stake como número ou string ("25.00")
type PlaceRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

type PlaceResponse struct {
	Bet    *domain.Bet    `json:"bet"`
	Wallet *domain.Wallet `json:"wallet"`
}

type LeaderboardEntry struct {
	Rank        int             `json:"rank"`
	UserID      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	Balance     decimal.Decimal `json:"balance"`
	PnL         decimal.Decimal `json:"pnl"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
