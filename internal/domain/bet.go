package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LegType string

const (
	LegMatchWinner     LegType = "match_winner"
	LegTeamTopPoints   LegType = "team_top_points"
	LegPlayerTopPoints LegType = "player_top_points"
)

// BetTypeParlay é o tipo de aposta com mais de uma perna
const BetTypeParlay = "parlay"

type BetStatus string

const (
	BetOpen BetStatus = "open"
	BetWon  BetStatus = "won"
	BetLost BetStatus = "lost"
)

// Terminal indica se o status não admite mais transições
func (s BetStatus) Terminal() bool { return s == BetWon || s == BetLost }

// LegData identifica a seleção de uma perna, conforme o tipo
// match_winner: MatchupID + WinnerRosterID
// team_top_points: RosterID
// player_top_points: PlayerID
type LegData struct {
	MatchupID      int    `json:"matchupId,omitempty"`
	WinnerRosterID int    `json:"winnerRosterId,omitempty"`
	RosterID       int    `json:"rosterId,omitempty"`
	PlayerID       string `json:"playerId,omitempty"`

	// campos de exibição
	OwnerName  string `json:"ownerName,omitempty"`
	TeamLabel  string `json:"teamLabel,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

// Leg é uma seleção dentro do bilhete; Odds é o snapshot do momento em que foi adicionada
type Leg struct {
	Type        LegType `json:"type"`
	Description string  `json:"description,omitempty"`
	Data        LegData `json:"data"`
	Odds        float64 `json:"odds"`
}

// Bet representa uma aposta persistida
type Bet struct {
	ID           string           `json:"id"`
	WalletID     string           `json:"walletId"`
	LeagueID     string           `json:"leagueId"`
	UserID       string           `json:"userId"`
	DisplayName  string           `json:"displayName"`
	Week         int              `json:"week"`
	Stake        decimal.Decimal  `json:"stake"`
	CombinedOdds float64          `json:"combinedOdds"`
	Type         string           `json:"type"`
	Status       BetStatus        `json:"status"`
	Legs         []Leg            `json:"legs"`
	Payout       *decimal.Decimal `json:"payout,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	SettledAt    *time.Time       `json:"settledAt,omitempty"`
}

// Clone copia a aposta, incluindo as pernas
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	c := *b
	c.Legs = append([]Leg(nil), b.Legs...)
	if b.Payout != nil {
		p := *b.Payout
		c.Payout = &p
	}
	if b.SettledAt != nil {
		t := *b.SettledAt
		c.SettledAt = &t
	}
	return &c
}

// CombinedOdds é o produto das odds de todas as pernas (1 para lista vazia)
func CombinedOdds(legs []Leg) float64 {
	out := 1.0
	for _, l := range legs {
		out *= l.Odds
	}
	return out
}

// BetType retorna o tipo da perna única, ou "parlay" para múltiplas pernas
func BetType(legs []Leg) string {
	if len(legs) == 1 {
		return string(legs[0].Type)
	}
	return BetTypeParlay
}
