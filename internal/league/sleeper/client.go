// Package sleeper é o cliente HTTP do provedor de fantasy (endpoints compatíveis com Sleeper).
package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/league"
)

const (
	DefaultBaseURL        = "https://api.sleeper.app/v1"
	DefaultProjectionsURL = "https://api.sleeper.app/projections/nfl"
	DefaultStatsURL       = "https://api.sleeper.com/stats/nfl/player"
)

// posições pedidas ao feed de projeções
var projectionPositions = []string{"QB", "RB", "WR", "TE", "K", "DEF", "FLEX", "REC_FLEX"}

type Client struct {
	BaseURL        string
	ProjectionsURL string
	StatsURL       string
	HTTP           *http.Client
	log            *zap.Logger
}

var (
	_ league.Provider      = (*Client)(nil)
	_ league.UserDirectory = (*Client)(nil)
)

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ProjectionsURL: DefaultProjectionsURL,
		StatsURL:       DefaultStatsURL,
		HTTP:           &http.Client{Timeout: timeout},
		log:            log,
	}
}

// getJSON faz GET e decodifica; falha de transporte ou status != 2xx vira ErrDataUnavailable
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", league.ErrDataUnavailable, rawURL, err)
	}
	defer res.Body.Close()

	c.log.Debug("provider request", zap.String("url", rawURL), zap.Int("status", res.StatusCode), zap.Duration("took", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("%w: GET %s: http %d", league.ErrDataUnavailable, rawURL, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", league.ErrDataUnavailable, rawURL, err)
	}
	return nil
}

func (c *Client) NFLState(ctx context.Context) (league.State, error) {
	var st league.State
	err := c.getJSON(ctx, c.BaseURL+"/state/nfl", &st)
	return st, err
}

// LookupUser resolve um username para o usuário do provedor
func (c *Client) LookupUser(ctx context.Context, username string) (league.User, error) {
	var u league.User
	err := c.getJSON(ctx, c.BaseURL+"/user/"+url.PathEscape(username), &u)
	if err == nil && u.UserID == "" {
		return u, fmt.Errorf("%w: %q", league.ErrUnknownUser, username)
	}
	return u, err
}

func (c *Client) Users(ctx context.Context, leagueID string) ([]league.User, error) {
	var out []league.User
	err := c.getJSON(ctx, c.BaseURL+"/league/"+url.PathEscape(leagueID)+"/users", &out)
	return out, err
}

func (c *Client) Rosters(ctx context.Context, leagueID string) ([]league.Roster, error) {
	var out []league.Roster
	err := c.getJSON(ctx, c.BaseURL+"/league/"+url.PathEscape(leagueID)+"/rosters", &out)
	return out, err
}

func (c *Client) Matchups(ctx context.Context, leagueID string, week int) ([]league.MatchupEntry, error) {
	var out []league.MatchupEntry
	err := c.getJSON(ctx, fmt.Sprintf("%s/league/%s/matchups/%d", c.BaseURL, url.PathEscape(leagueID), week), &out)
	return out, err
}

func (c *Client) Projections(ctx context.Context, season string, week int) ([]league.ProjectionRow, error) {
	q := url.Values{}
	q.Set("season_type", "regular")
	q.Set("order_by", "ppr")
	for _, p := range projectionPositions {
		q.Add("position[]", p)
	}
	u := fmt.Sprintf("%s/%s/%d?%s", c.ProjectionsURL, url.PathEscape(season), week, q.Encode())

	var raw []projectionDTO
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	out := make([]league.ProjectionRow, 0, len(raw))
	for _, r := range raw {
		out = append(out, league.ProjectionRow{PlayerID: r.PlayerID, Stats: r.Stats.numbers()})
	}
	return out, nil
}

// Players traz o catálogo completo de jogadores da NFL (documento grande, convém cachear)
func (c *Client) Players(ctx context.Context) (map[string]league.Player, error) {
	out := map[string]league.Player{}
	err := c.getJSON(ctx, c.BaseURL+"/players/nfl", &out)
	return out, err
}

// PlayerStats devolve as stats por semana da temporada regular; semanas null ficam de fora
func (c *Client) PlayerStats(ctx context.Context, playerID, season string) (map[int]map[string]float64, error) {
	q := url.Values{}
	q.Set("season_type", "regular")
	q.Set("season", season)
	q.Set("grouping", "week")
	u := fmt.Sprintf("%s/%s?%s", c.StatsURL, url.PathEscape(playerID), q.Encode())

	var raw map[string]*weeklyStatDTO
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]map[string]float64, len(raw))
	for k, entry := range raw {
		w, ok := weekKey(k)
		if !ok || entry == nil || entry.Stats == nil {
			continue
		}
		out[w] = entry.Stats.numbers()
	}
	return out, nil
}
