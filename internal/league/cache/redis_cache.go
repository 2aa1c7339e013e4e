// Package cache decora um league.Provider com cache em Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/league"
)

// catálogo de jogadores muda pouco e é grande
const playersTTL = 24 * time.Hour

// Provider consulta o Redis antes do provedor. Falha do Redis nunca falha a leitura.
type Provider struct {
	Next league.Provider
	R    redis.Cmdable
	TTL  time.Duration
	log  *zap.Logger
}

var _ league.Provider = (*Provider)(nil)

func New(next league.Provider, r redis.Cmdable, ttl time.Duration, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Provider{Next: next, R: r, TTL: ttl, log: log}
}

func keyState() string                  { return "betbook:nfl:state" }
func keyUsers(leagueID string) string   { return "betbook:league:" + leagueID + ":users" }
func keyRosters(leagueID string) string { return "betbook:league:" + leagueID + ":rosters" }
func keyPlayers() string                { return "betbook:nfl:players" }
func keyMatchups(leagueID string, week int) string {
	return fmt.Sprintf("betbook:league:%s:matchups:%d", leagueID, week)
}
func keyProjections(season string, week int) string {
	return fmt.Sprintf("betbook:nfl:projections:%s:%d", season, week)
}
func keyStats(playerID, season string) string {
	return fmt.Sprintf("betbook:nfl:stats:%s:%s", season, playerID)
}

// get lê e decodifica a chave; false em miss, falha do Redis ou entrada corrompida
func get[T any](ctx context.Context, p *Provider, key string) (T, bool) {
	var out T
	b, err := p.R.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(b, &out); jerr == nil {
			return out, true
		}
		p.log.Warn("discard corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		p.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return out, false
}

func (p *Provider) set(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.R.Set(ctx, key, b, ttl).Err(); err != nil {
		p.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// fetch lê do cache; em miss carrega do provedor e grava com o ttl informado
func fetch[T any](ctx context.Context, p *Provider, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if out, ok := get[T](ctx, p, key); ok {
		return out, nil
	}
	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	p.set(ctx, key, out, ttl)
	return out, nil
}

func (p *Provider) NFLState(ctx context.Context) (league.State, error) {
	return fetch(ctx, p, keyState(), p.TTL, p.Next.NFLState)
}

func (p *Provider) Users(ctx context.Context, leagueID string) ([]league.User, error) {
	return fetch(ctx, p, keyUsers(leagueID), p.TTL, func(ctx context.Context) ([]league.User, error) {
		return p.Next.Users(ctx, leagueID)
	})
}

func (p *Provider) Rosters(ctx context.Context, leagueID string) ([]league.Roster, error) {
	return fetch(ctx, p, keyRosters(leagueID), p.TTL, func(ctx context.Context) ([]league.Roster, error) {
		return p.Next.Rosters(ctx, leagueID)
	})
}

// matchupsEntry marca se a semana já estava fechada quando os confrontos foram lidos
type matchupsEntry struct {
	Final   bool                  `json:"final"`
	Entries []league.MatchupEntry `json:"entries"`
}

// Matchups só serve do cache um snapshot de semana em andamento enquanto o estado
// ainda aponta para ela; depois que a semana fecha, relê do provedor.
// A liquidação nunca vê placar parcial.
func (p *Provider) Matchups(ctx context.Context, leagueID string, week int) ([]league.MatchupEntry, error) {
	key := keyMatchups(leagueID, week)
	if cached, ok := get[matchupsEntry](ctx, p, key); ok {
		if cached.Final || !p.weekClosed(ctx, week) {
			return cached.Entries, nil
		}
		p.log.Debug("reload matchups of closed week", zap.String("leagueId", leagueID), zap.Int("week", week))
	}

	// fechamento conferido antes da leitura: se já estava fechada, o dado é final
	final := p.weekClosed(ctx, week)
	entries, err := p.Next.Matchups(ctx, leagueID, week)
	if err != nil {
		return nil, err
	}
	p.set(ctx, key, matchupsEntry{Final: final, Entries: entries}, p.TTL)
	return entries, nil
}

func (p *Provider) weekClosed(ctx context.Context, week int) bool {
	st, err := p.NFLState(ctx)
	return err == nil && st.Week > week
}

func (p *Provider) Projections(ctx context.Context, season string, week int) ([]league.ProjectionRow, error) {
	return fetch(ctx, p, keyProjections(season, week), p.TTL, func(ctx context.Context) ([]league.ProjectionRow, error) {
		return p.Next.Projections(ctx, season, week)
	})
}

func (p *Provider) Players(ctx context.Context) (map[string]league.Player, error) {
	return fetch(ctx, p, keyPlayers(), playersTTL, p.Next.Players)
}

func (p *Provider) PlayerStats(ctx context.Context, playerID, season string) (map[int]map[string]float64, error) {
	return fetch(ctx, p, keyStats(playerID, season), p.TTL, func(ctx context.Context) (map[int]map[string]float64, error) {
		return p.Next.PlayerStats(ctx, playerID, season)
	})
}

// InvalidateWeek descarta estado, confrontos e projeções da semana para forçar nova leitura
func (p *Provider) InvalidateWeek(ctx context.Context, leagueID, season string, week int) error {
	return p.R.Del(ctx, keyState(), keyMatchups(leagueID, week), keyProjections(season, week)).Err()
}
