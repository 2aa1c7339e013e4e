package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/fantasy-betbook/internal/domain"
)

// Betbook implementa ledger.Metrics e settlement.Metrics sobre Prometheus
type Betbook struct {
	passes       prometheus.Counter
	settled      *prometheus.CounterVec
	deferred     prometheus.Counter
	weeksSkipped prometheus.Counter
	conflicts    prometheus.Counter
	passSeconds  prometheus.Histogram
	placed       prometheus.Counter
	rejected     *prometheus.CounterVec
}

// NewBetbook registra os coletores em reg (prometheus.DefaultRegisterer nos binários)
func NewBetbook(reg prometheus.Registerer) *Betbook {
	m := &Betbook{
		passes:       prometheus.NewCounter(prometheus.CounterOpts{Name: "betbook_settlement_passes_total", Help: "passes de liquidação concluídos"}),
		settled:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "betbook_bets_settled_total", Help: "apostas liquidadas por status"}, []string{"status"}),
		deferred:     prometheus.NewCounter(prometheus.CounterOpts{Name: "betbook_bets_deferred_total", Help: "apostas adiadas por resultado indeterminado"}),
		weeksSkipped: prometheus.NewCounter(prometheus.CounterOpts{Name: "betbook_settlement_weeks_skipped_total", Help: "semanas puladas por falta de dados"}),
		conflicts:    prometheus.NewCounter(prometheus.CounterOpts{Name: "betbook_settlement_conflicts_total", Help: "apostas já liquidadas por outro pass"}),
		passSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "betbook_settlement_pass_seconds",
			Help:    "duração do pass de liquidação",
			Buckets: prometheus.DefBuckets,
		}),
		placed:   prometheus.NewCounter(prometheus.CounterOpts{Name: "betbook_bets_placed_total", Help: "apostas aceitas"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "betbook_placements_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"}),
	}
	reg.MustRegister(m.passes, m.settled, m.deferred, m.weeksSkipped, m.conflicts, m.passSeconds, m.placed, m.rejected)
	return m
}

func (m *Betbook) PassCompleted(d time.Duration) {
	m.passes.Inc()
	m.passSeconds.Observe(d.Seconds())
}

func (m *Betbook) BetSettled(status domain.BetStatus) { m.settled.WithLabelValues(string(status)).Inc() }
func (m *Betbook) BetDeferred()                       { m.deferred.Inc() }
func (m *Betbook) WeekSkipped()                       { m.weeksSkipped.Inc() }
func (m *Betbook) Conflict()                          { m.conflicts.Inc() }

func (m *Betbook) PlacementAccepted()              { m.placed.Inc() }
func (m *Betbook) PlacementRejected(reason string) { m.rejected.WithLabelValues(reason).Inc() }
