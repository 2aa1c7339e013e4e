package league

import (
	"context"
	"fmt"
	"sort"

	"github.com/radieske/fantasy-betbook/internal/odds"
)

// posições elegíveis para o mercado de maior pontuador
var propPositions = map[string]bool{"QB": true, "RB": true, "WR": true, "TE": true}

// Snapshot reúne os dados da liga necessários para montar o quadro de odds de uma semana
type Snapshot struct {
	Week     int
	Season   string
	Users    []User
	Rosters  []Roster
	Matchups []MatchupEntry
	// player_id -> pontos projetados
	Projections map[string]float64
	Players     map[string]Player
	// player_id -> média histórica (ausente = sem histórico)
	History map[string]float64
}

type Side struct {
	RosterID   int     `json:"rosterId"`
	Owner      string  `json:"owner"`
	Projection float64 `json:"projection"`
	Odds       float64 `json:"odds"`
}

type MatchupLine struct {
	MatchupID int  `json:"matchupId"`
	Home      Side `json:"home"`
	Away      Side `json:"away"`
}

type TeamLine struct {
	RosterID   int     `json:"rosterId"`
	Owner      string  `json:"owner"`
	Projection float64 `json:"projection"`
	Odds       float64 `json:"odds"`
}

type PlayerLine struct {
	PlayerID          string   `json:"playerId"`
	Name              string   `json:"name"`
	Position          string   `json:"position"`
	Team              string   `json:"team,omitempty"`
	Projection        float64  `json:"projection"`
	HistoricalAverage *float64 `json:"historicalAverage,omitempty"`
	Odds              float64  `json:"odds"`
}

// Board é o quadro de odds exposto para a interface
type Board struct {
	Week     int           `json:"week"`
	Season   string        `json:"season"`
	Matchups []MatchupLine `json:"matchups"`
	Teams    []TeamLine    `json:"teams"`
	Players  []PlayerLine  `json:"players"`
}

// BuildBoard calcula as odds dos três mercados a partir do snapshot
func BuildBoard(s Snapshot) Board {
	owners := ownerNames(s.Users, s.Rosters)
	rosterProj := RosterProjections(s.Matchups, s.Projections)

	b := Board{
		Week:     s.Week,
		Season:   s.Season,
		Matchups: []MatchupLine{},
		Teams:    []TeamLine{},
		Players:  []PlayerLine{},
	}

	for _, g := range GroupMatchups(s.Matchups) {
		if len(g.Teams) < 2 {
			continue
		}
		a, c := g.Teams[0], g.Teams[1]
		ownerA, okA := owners[a.RosterID]
		ownerC, okC := owners[c.RosterID]
		if !okA || !okC {
			continue
		}
		oddsA, oddsC := odds.Matchup(rosterProj[a.RosterID], rosterProj[c.RosterID])
		b.Matchups = append(b.Matchups, MatchupLine{
			MatchupID: g.MatchupID,
			Home:      Side{RosterID: a.RosterID, Owner: ownerA, Projection: rosterProj[a.RosterID], Odds: oddsA},
			Away:      Side{RosterID: c.RosterID, Owner: ownerC, Projection: rosterProj[c.RosterID], Odds: oddsC},
		})
	}

	// times: um por roster presente nos confrontos, com projeção não nula
	seen := map[int]bool{}
	var teams []odds.TeamProjection
	for _, e := range s.Matchups {
		if seen[e.RosterID] {
			continue
		}
		if _, ok := owners[e.RosterID]; !ok || rosterProj[e.RosterID] == 0 {
			continue
		}
		seen[e.RosterID] = true
		teams = append(teams, odds.TeamProjection{RosterID: e.RosterID, ProjectedPoints: rosterProj[e.RosterID]})
	}
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].ProjectedPoints > teams[j].ProjectedPoints })
	teamOdds := odds.TeamTopScore(teams)
	for _, t := range teams {
		o, ok := teamOdds[t.RosterID]
		if !ok {
			continue
		}
		b.Teams = append(b.Teams, TeamLine{RosterID: t.RosterID, Owner: owners[t.RosterID], Projection: t.ProjectedPoints, Odds: o})
	}

	candidates := PropCandidates(s)
	inputs := make([]odds.PlayerProjection, len(candidates))
	for i, c := range candidates {
		inputs[i] = odds.PlayerProjection{PlayerID: c.PlayerID, ProjectedPoints: c.Projection, HistoricalAverage: c.HistoricalAverage}
	}
	playerOdds := odds.PlayerTopScore(inputs)
	for _, c := range candidates {
		o, ok := playerOdds[c.PlayerID]
		if !ok {
			continue
		}
		c.Odds = o
		b.Players = append(b.Players, c)
	}
	sort.SliceStable(b.Players, func(i, j int) bool { return b.Players[i].Odds < b.Players[j].Odds })
	return b
}

// PropCandidates lista os titulares elegíveis ao mercado de jogador, na ordem em que aparecem
func PropCandidates(s Snapshot) []PlayerLine {
	seen := map[string]bool{}
	var out []PlayerLine
	for _, e := range s.Matchups {
		for _, pid := range e.Starters {
			if seen[pid] {
				continue
			}
			seen[pid] = true
			p, ok := s.Players[pid]
			if !ok || !propPositions[p.Position] {
				continue
			}
			proj := s.Projections[pid]
			if proj == 0 {
				continue
			}
			line := PlayerLine{PlayerID: pid, Name: p.Name(), Position: p.Position, Team: p.Team, Projection: proj}
			if avg, ok := s.History[pid]; ok {
				a := avg
				line.HistoricalAverage = &a
			}
			out = append(out, line)
		}
	}
	return out
}

func ownerNames(users []User, rosters []Roster) map[int]string {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	out := make(map[int]string, len(rosters))
	for _, r := range rosters {
		u := byID[r.OwnerID]
		switch {
		case u.DisplayName != "":
			out[r.RosterID] = u.DisplayName
		case u.Username != "":
			out[r.RosterID] = u.Username
		default:
			out[r.RosterID] = "Unknown"
		}
	}
	return out
}

// LoadSnapshot busca no provedor tudo que BuildBoard precisa.
// week <= 0 usa a semana corrente. Falha de histórico de um jogador só o deixa sem média.
func LoadSnapshot(ctx context.Context, p Provider, leagueID string, week int) (Snapshot, error) {
	st, err := p.NFLState(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("nfl state: %w", err)
	}
	if week <= 0 {
		week = st.Week
	}
	users, err := p.Users(ctx, leagueID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("users: %w", err)
	}
	rosters, err := p.Rosters(ctx, leagueID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rosters: %w", err)
	}
	matchups, err := p.Matchups(ctx, leagueID, week)
	if err != nil {
		return Snapshot{}, fmt.Errorf("matchups: %w", err)
	}
	rows, err := p.Projections(ctx, st.Season, week)
	if err != nil {
		return Snapshot{}, fmt.Errorf("projections: %w", err)
	}
	players, err := p.Players(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("players: %w", err)
	}

	s := Snapshot{
		Week:        week,
		Season:      st.Season,
		Users:       users,
		Rosters:     rosters,
		Matchups:    matchups,
		Projections: PlayerProjectionMap(rows),
		Players:     players,
		History:     map[string]float64{},
	}

	if st.Week > 1 {
		for _, c := range PropCandidates(s) {
			weekly, err := p.PlayerStats(ctx, c.PlayerID, st.Season)
			if err != nil {
				continue
			}
			if avg := HistoricalAverage(weekly, st.Week); avg != nil {
				s.History[c.PlayerID] = *avg
			}
		}
	}
	return s, nil
}

// MatchupSide devolve o lado rosterID do confronto matchupID
func (b Board) MatchupSide(matchupID, rosterID int) (Side, bool) {
	for _, m := range b.Matchups {
		if m.MatchupID != matchupID {
			continue
		}
		switch rosterID {
		case m.Home.RosterID:
			return m.Home, true
		case m.Away.RosterID:
			return m.Away, true
		}
	}
	return Side{}, false
}

func (b Board) Team(rosterID int) (TeamLine, bool) {
	for _, t := range b.Teams {
		if t.RosterID == rosterID {
			return t, true
		}
	}
	return TeamLine{}, false
}

func (b Board) Player(playerID string) (PlayerLine, bool) {
	for _, p := range b.Players {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return PlayerLine{}, false
}

// Boards monta quadros sob demanda a partir do provedor (normalmente o decorador com cache)
type Boards struct {
	Provider Provider
}

// Board monta o quadro da semana; week <= 0 usa a semana corrente
func (b Boards) Board(ctx context.Context, leagueID string, week int) (Board, error) {
	s, err := LoadSnapshot(ctx, b.Provider, leagueID, week)
	if err != nil {
		return Board{}, err
	}
	return BuildBoard(s), nil
}

func (b Boards) CurrentWeek(ctx context.Context) (int, error) {
	st, err := b.Provider.NFLState(ctx)
	if err != nil {
		return 0, fmt.Errorf("nfl state: %w", err)
	}
	return st.Week, nil
}
