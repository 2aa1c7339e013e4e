package events

// Evento publicado no tópico "bet_placed" após a aposta ser gravada e o stake debitado
type BetPlaced struct {
	BetID        string  `json:"bet_id"`
	LeagueID     string  `json:"league_id"`
	UserID       string  `json:"user_id"`
	WalletID     string  `json:"wallet_id"`
	Week         int     `json:"week"`
	BetType      string  `json:"bet_type"` // match_winner | team_top_points | player_top_points | parlay
	Legs         int     `json:"legs"`
	Stake        string  `json:"stake"` // decimal em texto, ex: "25.00"
	CombinedOdds float64 `json:"combined_odds"`
	TsUnixMs     int64   `json:"ts_unix_ms"`
}
