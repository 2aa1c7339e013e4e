package settlement

import (
	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
)

// EvaluateLeg decide uma perna contra o resultado da semana
func EvaluateLeg(leg domain.Leg, res *league.WeeklyResult) Verdict {
	if res == nil {
		return Unknown
	}
	switch leg.Type {
	case domain.LegMatchWinner:
		teams := res.Matchup(leg.Data.MatchupID)
		if len(teams) < 2 {
			return Unknown
		}
		// empate favorece o primeiro lado listado
		winner := teams[0]
		if teams[1].Points > teams[0].Points {
			winner = teams[1]
		}
		if winner.RosterID == leg.Data.WinnerRosterID {
			return Win
		}
		return Lose

	case domain.LegPlayerTopPoints:
		top, ok := res.TopScoringPlayer()
		if !ok {
			return Unknown
		}
		if top == leg.Data.PlayerID {
			return Win
		}
		return Lose

	case domain.LegTeamTopPoints:
		top, ok := res.TopScoringRoster()
		if !ok {
			return Unknown
		}
		if top == leg.Data.RosterID {
			return Win
		}
		return Lose
	}
	return Unknown
}

// Evaluate decide a aposta inteira, perna a perna, na ordem do bilhete
func Evaluate(b *domain.Bet, res *league.WeeklyResult) Verdict {
	return Fold(b.Legs, func(l domain.Leg) Verdict { return EvaluateLeg(l, res) })
}
