package settlement

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner dispara uma passada ao iniciar e depois a cada Interval, até o contexto acabar.
// Erros de uma passada só são logados; a próxima tenta de novo.
type Runner struct {
	Engine   *Engine
	Interval time.Duration
	Log      *zap.Logger

	// OnPass é chamado após cada passada (report nil quando houve erro)
	OnPass func(*PassReport, error)
}

func (r *Runner) Run(ctx context.Context) error {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	runOnce := func() {
		report, err := r.Engine.RunPass(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error("settlement pass failed", zap.Error(err))
		}
		if r.OnPass != nil {
			r.OnPass(report, err)
		}
	}

	runOnce()
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			runOnce()
		}
	}
}
