package league

// chaves de pontuação, em ordem de preferência
var scoringKeys = []string{"pts_ppr", "pts_half_ppr", "pts_std"}

// PlayerProjectionMap converte o feed de projeções em player_id -> pontos projetados.
// Usa pts_ppr, depois pts_half_ppr, depois pts_std; 0 quando nenhum existe.
func PlayerProjectionMap(rows []ProjectionRow) map[string]float64 {
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		if row.PlayerID == "" {
			continue
		}
		pts := 0.0
		for _, k := range scoringKeys {
			if v, ok := row.Stats[k]; ok {
				pts = v
				break
			}
		}
		out[row.PlayerID] = pts
	}
	return out
}

// RosterProjections soma a projeção dos titulares de cada roster
func RosterProjections(entries []MatchupEntry, projections map[string]float64) map[int]float64 {
	out := map[int]float64{}
	for _, e := range entries {
		if e.RosterID == 0 {
			continue
		}
		total := out[e.RosterID]
		for _, pid := range e.Starters {
			total += projections[pid]
		}
		out[e.RosterID] = total
	}
	return out
}

// HistoricalAverage é a média de pts_ppr das semanas já encerradas (semana < currentWeek).
// nil quando não há histórico.
func HistoricalAverage(weekly map[int]map[string]float64, currentWeek int) *float64 {
	if currentWeek <= 1 {
		return nil
	}
	total, count := 0.0, 0
	for w, stats := range weekly {
		if w >= currentWeek || stats == nil {
			continue
		}
		pts, ok := stats["pts_ppr"]
		if !ok {
			continue
		}
		total += pts
		count++
	}
	if count == 0 {
		return nil
	}
	avg := total / float64(count)
	return &avg
}
