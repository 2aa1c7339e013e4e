package league

// Matchup devolve os lados do confronto com o id informado, na ordem do provedor
func (r *WeeklyResult) Matchup(matchupID int) []MatchupEntry {
	var out []MatchupEntry
	for _, e := range r.Entries {
		if e.GroupID() == matchupID {
			out = append(out, e)
		}
	}
	return out
}

// MatchupGroup é um confronto com seus lados
type MatchupGroup struct {
	MatchupID int
	Teams     []MatchupEntry
}

// GroupMatchups agrupa as entradas por confronto, na ordem do primeiro aparecimento
func GroupMatchups(entries []MatchupEntry) []MatchupGroup {
	idx := map[int]int{}
	var out []MatchupGroup
	for _, e := range entries {
		id := e.GroupID()
		i, ok := idx[id]
		if !ok {
			i = len(out)
			idx[id] = i
			out = append(out, MatchupGroup{MatchupID: id})
		}
		out[i].Teams = append(out[i].Teams, e)
	}
	return out
}

// TopScoringPlayer soma os pontos de cada jogador em todos os confrontos da semana e
// devolve o maior. Empate fica com o primeiro encontrado; false quando não há dados.
func (r *WeeklyResult) TopScoringPlayer() (string, bool) {
	totals := map[string]float64{}
	var order []string
	for _, e := range r.Entries {
		for _, s := range e.PlayersPoints {
			if _, seen := totals[s.PlayerID]; !seen {
				order = append(order, s.PlayerID)
			}
			totals[s.PlayerID] += s.Points
		}
	}
	return argmax(order, totals)
}

// TopScoringRoster faz o mesmo para os rosters, ignorando roster id 0
func (r *WeeklyResult) TopScoringRoster() (int, bool) {
	totals := map[int]float64{}
	var order []int
	for _, e := range r.Entries {
		if e.RosterID == 0 {
			continue
		}
		if _, seen := totals[e.RosterID]; !seen {
			order = append(order, e.RosterID)
		}
		totals[e.RosterID] += e.Points
	}
	return argmax(order, totals)
}

func argmax[K comparable](order []K, totals map[K]float64) (K, bool) {
	var best K
	if len(order) == 0 {
		return best, false
	}
	best = order[0]
	for _, k := range order[1:] {
		if totals[k] > totals[best] {
			best = k
		}
	}
	return best, true
}
