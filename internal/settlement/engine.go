// Package settlement liquida apostas abertas contra os resultados finalizados da liga.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
	"github.com/radieske/fantasy-betbook/internal/ledger"
	"github.com/radieske/fantasy-betbook/internal/store"
	"github.com/radieske/fantasy-betbook/pkg/contracts/events"
)

// Results é a fonte de resultados semanais (league.ResultSource em produção)
type Results interface {
	CurrentWeek(ctx context.Context) (int, error)
	WeeklyResult(ctx context.Context, week int) (*league.WeeklyResult, error)
}

// Publisher recebe os eventos de apostas liquidadas (Kafka em produção)
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Notifier avisa leitores ao vivo (WebSocket) sobre mudanças de carteira e aposta
type Notifier interface {
	BetSettled(ctx context.Context, b *domain.Bet) error
	WalletUpdated(ctx context.Context, w *domain.Wallet) error
}

type Metrics interface {
	PassCompleted(d time.Duration)
	BetSettled(status domain.BetStatus)
	BetDeferred()
	WeekSkipped()
	Conflict()
}

type noopMetrics struct{}

func (noopMetrics) PassCompleted(time.Duration) {}
func (noopMetrics) BetSettled(domain.BetStatus) {}
func (noopMetrics) BetDeferred()                {}
func (noopMetrics) WeekSkipped()                {}
func (noopMetrics) Conflict()                   {}

// SettledBet é uma aposta liquidada e a carteira após a liquidação
type SettledBet struct {
	Bet    *domain.Bet    `json:"bet"`
	Wallet *domain.Wallet `json:"wallet"`
}

// PassReport resume uma passada de liquidação
type PassReport struct {
	CurrentWeek  int          `json:"currentWeek"`
	Considered   int          `json:"considered"`
	Won          int          `json:"won"`
	Lost         int          `json:"lost"`
	Deferred     int          `json:"deferred"`
	Conflicts    int          `json:"conflicts"`
	SkippedWeeks []int        `json:"skippedWeeks"`
	Settled      []SettledBet `json:"settled"`
}

type Engine struct {
	store    store.Store
	results  Results
	leagueID string
	log      *zap.Logger

	metrics   Metrics
	publisher Publisher
	notifier  Notifier
	now       func() time.Time
}

type Option func(*Engine)

func WithMetrics(m Metrics) Option          { return func(e *Engine) { e.metrics = m } }
func WithPublisher(p Publisher) Option      { return func(e *Engine) { e.publisher = p } }
func WithNotifier(n Notifier) Option        { return func(e *Engine) { e.notifier = n } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(st store.Store, results Results, leagueID string, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:    st,
		results:  results,
		leagueID: leagueID,
		log:      log,
		metrics:  noopMetrics{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type decision struct {
	bet     *domain.Bet
	verdict Verdict
}

// RunPass executa uma passada: carrega apostas abertas de semanas encerradas, busca o resultado
// de cada semana uma única vez, avalia e grava todas as transições num único lote.
// Pode rodar em paralelo com outras passadas; a transição só acontece se a aposta ainda estiver open.
func (e *Engine) RunPass(ctx context.Context) (*PassReport, error) {
	start := time.Now()

	current, err := e.results.CurrentWeek(ctx)
	if err != nil {
		return nil, fmt.Errorf("current week: %w", err)
	}
	report := &PassReport{CurrentWeek: current, SkippedWeeks: []int{}, Settled: []SettledBet{}}

	var open []*domain.Bet
	if err := e.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		open, err = tx.ListOpenBets(ctx, e.leagueID)
		return err
	}); err != nil {
		return nil, fmt.Errorf("list open bets: %w", err)
	}

	byWeek := map[int][]*domain.Bet{}
	for _, b := range open {
		// semana em andamento nunca é liquidada
		if b.Status != domain.BetOpen || b.Week >= current {
			continue
		}
		byWeek[b.Week] = append(byWeek[b.Week], b)
		report.Considered++
	}
	weeks := make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	var decisions []decision
	for _, week := range weeks {
		res, err := e.results.WeeklyResult(ctx, week)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.log.Warn("weekly result unavailable, skipping week",
				zap.Int("week", week),
				zap.Int("bets", len(byWeek[week])),
				zap.Bool("dataUnavailable", errors.Is(err, league.ErrDataUnavailable)),
				zap.Error(err))
			report.SkippedWeeks = append(report.SkippedWeeks, week)
			e.metrics.WeekSkipped()
			continue
		}
		for _, b := range byWeek[week] {
			v := Evaluate(b, res)
			if v == Unknown {
				report.Deferred++
				e.metrics.BetDeferred()
				continue
			}
			decisions = append(decisions, decision{bet: b, verdict: v})
		}
	}

	if len(decisions) > 0 {
		settled, conflicts, err := e.commit(ctx, decisions)
		if err != nil {
			return nil, fmt.Errorf("commit settlements: %w", err)
		}
		report.Settled = settled
		report.Conflicts = conflicts
		for _, s := range settled {
			if s.Bet.Status == domain.BetWon {
				report.Won++
			} else {
				report.Lost++
			}
			e.metrics.BetSettled(s.Bet.Status)
		}
		for i := 0; i < conflicts; i++ {
			e.metrics.Conflict()
		}
		e.emit(ctx, settled)
	}

	e.metrics.PassCompleted(time.Since(start))
	e.log.Info("settlement pass done",
		zap.Int("currentWeek", current),
		zap.Int("considered", report.Considered),
		zap.Int("won", report.Won),
		zap.Int("lost", report.Lost),
		zap.Int("deferred", report.Deferred),
		zap.Int("conflicts", report.Conflicts),
		zap.Ints("skippedWeeks", report.SkippedWeeks))
	return report, nil
}

// commit grava todas as decisões numa transação. Carteiras são travadas em ordem de id
// para que passadas concorrentes não entrem em deadlock.
func (e *Engine) commit(ctx context.Context, decisions []decision) ([]SettledBet, int, error) {
	sort.SliceStable(decisions, func(i, j int) bool {
		if decisions[i].bet.WalletID != decisions[j].bet.WalletID {
			return decisions[i].bet.WalletID < decisions[j].bet.WalletID
		}
		return decisions[i].bet.ID < decisions[j].bet.ID
	})

	var settled []SettledBet
	conflicts := 0
	now := e.now()

	err := e.store.InTx(ctx, func(tx store.Tx) error {
		settled = settled[:0]
		conflicts = 0
		for _, d := range decisions {
			w, err := tx.LockWallet(ctx, d.bet.WalletID)
			if errors.Is(err, store.ErrNotFound) {
				// carteira removida por reset depois da leitura
				conflicts++
				continue
			}
			if err != nil {
				return err
			}

			b := d.bet.Clone()
			if d.verdict == Win {
				ledger.SettleWon(w, b, now)
			} else {
				ledger.SettleLost(w, b, now)
			}

			ok, err := tx.MarkSettled(ctx, b)
			if err != nil {
				return err
			}
			if !ok {
				// outra passada liquidou primeiro; a mutação da carteira é descartada
				conflicts++
				continue
			}
			if err := tx.UpdateWallet(ctx, w); err != nil {
				return err
			}
			settled = append(settled, SettledBet{Bet: b, Wallet: w.Clone()})
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if settled == nil {
		settled = []SettledBet{}
	}
	return settled, conflicts, nil
}

// emit publica eventos depois do commit; falhas não desfazem a liquidação
func (e *Engine) emit(ctx context.Context, settled []SettledBet) {
	for _, s := range settled {
		if e.publisher != nil {
			if err := e.publisher.PublishBetSettled(ctx, betSettledEvent(s.Bet)); err != nil {
				e.log.Warn("publish bet_settled failed", zap.String("betId", s.Bet.ID), zap.Error(err))
			}
		}
		if e.notifier != nil {
			if err := e.notifier.BetSettled(ctx, s.Bet); err != nil {
				e.log.Warn("notify bet settled failed", zap.String("betId", s.Bet.ID), zap.Error(err))
			}
			if err := e.notifier.WalletUpdated(ctx, s.Wallet); err != nil {
				e.log.Warn("notify wallet failed", zap.String("walletId", s.Wallet.ID), zap.Error(err))
			}
		}
		e.log.Info("bet settled",
			zap.String("betId", s.Bet.ID),
			zap.String("userId", s.Bet.UserID),
			zap.String("status", string(s.Bet.Status)),
			zap.Int("week", s.Bet.Week))
	}
}

func betSettledEvent(b *domain.Bet) events.BetSettled {
	ev := events.BetSettled{
		BetID:    b.ID,
		LeagueID: b.LeagueID,
		UserID:   b.UserID,
		WalletID: b.WalletID,
		Week:     b.Week,
		Status:   string(b.Status),
		Stake:    b.Stake.StringFixed(2),
	}
	if b.Payout != nil {
		ev.Payout = b.Payout.StringFixed(2)
	}
	if b.SettledAt != nil {
		ev.Ts = *b.SettledAt
	}
	return ev
}
