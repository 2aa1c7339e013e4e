package league

import (
	"context"
	"fmt"
)

// Provider é a fonte externa de dados da liga (Sleeper ou compatível)
type Provider interface {
	NFLState(ctx context.Context) (State, error)
	Users(ctx context.Context, leagueID string) ([]User, error)
	Rosters(ctx context.Context, leagueID string) ([]Roster, error)
	Matchups(ctx context.Context, leagueID string, week int) ([]MatchupEntry, error)
	Projections(ctx context.Context, season string, week int) ([]ProjectionRow, error)
	Players(ctx context.Context) (map[string]Player, error)
	// PlayerStats devolve semana -> stats da temporada regular
	PlayerStats(ctx context.Context, playerID, season string) (map[int]map[string]float64, error)
}

// ResultSource expõe o que a liquidação precisa do provedor
type ResultSource struct {
	Provider Provider
	LeagueID string
}

func NewResultSource(p Provider, leagueID string) *ResultSource {
	return &ResultSource{Provider: p, LeagueID: leagueID}
}

// CurrentWeek devolve a semana corrente da liga
func (s *ResultSource) CurrentWeek(ctx context.Context) (int, error) {
	st, err := s.Provider.NFLState(ctx)
	if err != nil {
		return 0, fmt.Errorf("nfl state: %w", err)
	}
	return st.Week, nil
}

// WeeklyResult devolve os confrontos pontuados da semana
func (s *ResultSource) WeeklyResult(ctx context.Context, week int) (*WeeklyResult, error) {
	entries, err := s.Provider.Matchups(ctx, s.LeagueID, week)
	if err != nil {
		return nil, fmt.Errorf("matchups week %d: %w", week, err)
	}
	return &WeeklyResult{Week: week, Entries: entries}, nil
}

// SeasonPinned fixa a temporada devolvida por NFLState (SEASON na config);
// season vazia deixa o provedor decidir
type SeasonPinned struct {
	Provider
	Season string
}

func (p SeasonPinned) NFLState(ctx context.Context) (State, error) {
	st, err := p.Provider.NFLState(ctx)
	if err != nil {
		return st, err
	}
	if p.Season != "" {
		st.Season = p.Season
	}
	return st, nil
}
