// Package refresher renova periodicamente o quadro de odds da semana corrente:
// invalida o cache da semana, remonta o quadro (aquecendo o cache) e avisa os clientes ao vivo.
package refresher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/league"
)

// StateSource responde a semana/temporada corrente sem passar pelo cache
type StateSource interface {
	NFLState(ctx context.Context) (league.State, error)
}

type Invalidator interface {
	InvalidateWeek(ctx context.Context, leagueID, season string, week int) error
}

type BoardBuilder interface {
	Board(ctx context.Context, leagueID string, week int) (league.Board, error)
}

type BoardNotifier interface {
	BoardUpdated(ctx context.Context, leagueID string, board league.Board) error
}

type Refresher struct {
	State    StateSource
	Cache    Invalidator
	Boards   BoardBuilder
	Notify   BoardNotifier
	LeagueID string
	Season   string // vazio = temporada do provedor
	Interval time.Duration
	Log      *zap.Logger

	// OnRefresh é chamado após cada rodada (board nil quando houve erro)
	OnRefresh func(*league.Board, error)
}

// RunOnce executa uma rodada de atualização
func (r *Refresher) RunOnce(ctx context.Context) (*league.Board, error) {
	st, err := r.State.NFLState(ctx)
	if err != nil {
		return nil, fmt.Errorf("nfl state: %w", err)
	}
	season := r.Season
	if season == "" {
		season = st.Season
	}

	if err := r.Cache.InvalidateWeek(ctx, r.LeagueID, season, st.Week); err != nil {
		return nil, fmt.Errorf("invalidate week %d: %w", st.Week, err)
	}
	board, err := r.Boards.Board(ctx, r.LeagueID, st.Week)
	if err != nil {
		return nil, fmt.Errorf("board week %d: %w", st.Week, err)
	}

	if r.Notify != nil {
		if err := r.Notify.BoardUpdated(ctx, r.LeagueID, board); err != nil {
			r.log().Warn("board broadcast failed", zap.Int("week", st.Week), zap.Error(err))
		}
	}
	r.log().Info("board refreshed",
		zap.Int("week", board.Week),
		zap.Int("matchups", len(board.Matchups)),
		zap.Int("players", len(board.Players)))
	return &board, nil
}

// Run roda uma vez ao iniciar e depois a cada Interval até o contexto acabar
func (r *Refresher) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	tick := func() {
		board, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.log().Error("board refresh failed", zap.Error(err))
		}
		if r.OnRefresh != nil {
			r.OnRefresh(board, err)
		}
	}

	tick()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			tick()
		}
	}
}

func (r *Refresher) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
