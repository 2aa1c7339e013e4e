// Package slip mantém o bilhete (lista ordenada de pernas) de um participante antes da colocação.
package slip

import (
	"errors"
	"fmt"

	"github.com/radieske/fantasy-betbook/internal/domain"
)

var ErrLegIndex = errors.New("leg index out of range")

// Slip é o bilhete em construção. Não é seguro para uso concorrente; Session serializa o acesso.
type Slip struct {
	legs []domain.Leg
}

func New() *Slip { return &Slip{} }

// Add inclui uma perna no bilhete e informa se o bilhete mudou.
//
// match_winner do lado oposto de um confronto já selecionado substitui a perna anterior
// (a nova entra no fim); o mesmo lado de novo não faz nada.
// team_top_points / player_top_points duplicados não fazem nada.
func (s *Slip) Add(leg domain.Leg) bool {
	switch leg.Type {
	case domain.LegMatchWinner:
		for i, l := range s.legs {
			if l.Type != domain.LegMatchWinner || l.Data.MatchupID != leg.Data.MatchupID {
				continue
			}
			if l.Data.WinnerRosterID == leg.Data.WinnerRosterID {
				return false
			}
			s.legs = append(s.legs[:i], s.legs[i+1:]...)
			break
		}
	case domain.LegTeamTopPoints:
		for _, l := range s.legs {
			if l.Type == domain.LegTeamTopPoints && l.Data.RosterID == leg.Data.RosterID {
				return false
			}
		}
	case domain.LegPlayerTopPoints:
		for _, l := range s.legs {
			if l.Type == domain.LegPlayerTopPoints && l.Data.PlayerID == leg.Data.PlayerID {
				return false
			}
		}
	}
	s.legs = append(s.legs, leg)
	return true
}

// AddMatchWinner seleciona um lado de um confronto
func (s *Slip) AddMatchWinner(matchupID, winnerRosterID int, teamLabel string, odds float64) bool {
	return s.Add(domain.Leg{
		Type:        domain.LegMatchWinner,
		Description: fmt.Sprintf("%s to win matchup %d", teamLabel, matchupID),
		Data:        domain.LegData{MatchupID: matchupID, WinnerRosterID: winnerRosterID, TeamLabel: teamLabel},
		Odds:        odds,
	})
}

// AddTeamTop seleciona um roster como maior pontuador da semana
func (s *Slip) AddTeamTop(rosterID int, ownerName string, odds float64) bool {
	return s.Add(domain.Leg{
		Type:        domain.LegTeamTopPoints,
		Description: ownerName + " top score",
		Data:        domain.LegData{RosterID: rosterID, OwnerName: ownerName},
		Odds:        odds,
	})
}

// AddPlayerTop seleciona um jogador como maior pontuador da semana
func (s *Slip) AddPlayerTop(playerID, playerName string, odds float64) bool {
	return s.Add(domain.Leg{
		Type:        domain.LegPlayerTopPoints,
		Description: playerName + " top scorer",
		Data:        domain.LegData{PlayerID: playerID, PlayerName: playerName},
		Odds:        odds,
	})
}

// Remove tira a perna na posição i
func (s *Slip) Remove(i int) error {
	if i < 0 || i >= len(s.legs) {
		return ErrLegIndex
	}
	s.legs = append(s.legs[:i], s.legs[i+1:]...)
	return nil
}

func (s *Slip) Clear() { s.legs = nil }

// RemovePlaced tira do bilhete as pernas já colocadas; pernas incluídas
// depois da leitura (ou que substituíram uma colocada) ficam
func (s *Slip) RemovePlaced(placed []domain.Leg) {
	kept := s.legs[:0]
	for _, l := range s.legs {
		if !containsLeg(placed, l) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.legs = kept
}

func containsLeg(legs []domain.Leg, leg domain.Leg) bool {
	for _, l := range legs {
		if l == leg {
			return true
		}
	}
	return false
}

func (s *Slip) Len() int { return len(s.legs) }

// Legs retorna uma cópia das pernas em ordem
func (s *Slip) Legs() []domain.Leg {
	return append([]domain.Leg(nil), s.legs...)
}

// CombinedOdds é o produto das odds das pernas
func (s *Slip) CombinedOdds() float64 { return domain.CombinedOdds(s.legs) }

// Type é o tipo da perna única ou "parlay"
func (s *Slip) Type() string { return domain.BetType(s.legs) }
