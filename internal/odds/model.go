// Package odds converte projeções e histórico em odds decimais para os três mercados
// da liga: vencedor do confronto, time com maior pontuação e jogador com maior pontuação.
//
// Todas as funções seguem o mesmo formato: score -> probabilidade -> margem -> clamp -> 1/p,
// arredondado em 2 casas decimais.
package odds

import "math"

const (
	// matchupScale controla a inclinação da logística; maior = curva mais plana
	matchupScale  = 18.0
	matchupMargin = 0.05
	matchupMinP   = 0.10
	matchupMaxP   = 0.90

	fieldMargin = 0.08
	teamMaxP    = 0.50
	playerMaxP  = 0.35

	projectionWeight = 0.6
	historyWeight    = 0.4
)

// EvenOdds é devolvida quando não há projeção para nenhum dos lados
const EvenOdds = 2.00

// TeamProjection é a entrada do mercado team_top_points
type TeamProjection struct {
	RosterID        int
	ProjectedPoints float64
}

// PlayerProjection é a entrada do mercado player_top_points
// HistoricalAverage nil => usa a própria projeção
type PlayerProjection struct {
	PlayerID          string
	ProjectedPoints   float64
	HistoricalAverage *float64
}

// Matchup calcula as odds dos dois lados de um confronto a partir das projeções
func Matchup(projA, projB float64) (oddsA, oddsB float64) {
	if projA == 0 && projB == 0 {
		return EvenOdds, EvenOdds
	}
	pA, pB := matchupProbabilities(projA, projB)
	pA = clamp(pA, matchupMinP, matchupMaxP)
	pB = clamp(pB, matchupMinP, matchupMaxP)
	return toOdds(pA), toOdds(pB)
}

// matchupProbabilities devolve (pA, pB) já com margem aplicada e renormalizada, antes do clamp
func matchupProbabilities(projA, projB float64) (float64, float64) {
	pA := 1 / (1 + math.Exp(-(projA-projB)/matchupScale))
	pB := 1 - pA

	pA *= 1 - matchupMargin/2
	pB *= 1 - matchupMargin/2
	total := pA + pB
	return pA / total, pB / total
}

// TeamTopScore calcula as odds de cada roster terminar a semana com a maior pontuação.
// Rosters com probabilidade zero ficam fora do mapa (sem linha ofertada).
func TeamTopScore(teams []TeamProjection) map[int]float64 {
	out := make(map[int]float64, len(teams))
	if len(teams) == 0 {
		return out
	}
	scores := make([]float64, len(teams))
	for i, t := range teams {
		scores[i] = t.ProjectedPoints
	}
	probs := fieldProbabilities(scores)
	for i, t := range teams {
		if probs[i] <= 0 {
			continue
		}
		out[t.RosterID] = toOdds(math.Min(probs[i], teamMaxP))
	}
	return out
}

// PlayerTopScore calcula as odds de cada jogador ser o maior pontuador da semana.
// rating = 0.6*projeção + 0.4*média histórica
func PlayerTopScore(players []PlayerProjection) map[string]float64 {
	out := make(map[string]float64, len(players))
	if len(players) == 0 {
		return out
	}
	scores := make([]float64, len(players))
	for i, p := range players {
		scores[i] = Rating(p)
	}
	probs := fieldProbabilities(scores)
	for i, p := range players {
		if probs[i] <= 0 {
			continue
		}
		out[p.PlayerID] = toOdds(math.Min(probs[i], playerMaxP))
	}
	return out
}

// Rating combina projeção e média histórica do jogador
func Rating(p PlayerProjection) float64 {
	hist := p.ProjectedPoints
	if p.HistoricalAverage != nil {
		hist = *p.HistoricalAverage
	}
	return projectionWeight*p.ProjectedPoints + historyWeight*hist
}

// fieldProbabilities normaliza scores (piso 0) em probabilidades, aplica a margem de 8%
// e renormaliza. Soma zero usa total 1, e todas as probabilidades ficam zeradas.
func fieldProbabilities(scores []float64) []float64 {
	probs := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		probs[i] = math.Max(s, 0)
		total += probs[i]
	}
	if total == 0 {
		total = 1
	}

	adjTotal := 0.0
	for i := range probs {
		probs[i] = probs[i] / total * (1 - fieldMargin)
		adjTotal += probs[i]
	}
	if adjTotal == 0 {
		return probs
	}
	for i := range probs {
		probs[i] /= adjTotal
	}
	return probs
}

func clamp(p, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, p))
}

func toOdds(p float64) float64 {
	return Round2(1 / p)
}

// Round2 arredonda para 2 casas decimais
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
