package settlement

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
)

func TestRunner_FailedPassDoesNotStopLoop(t *testing.T) {
	f := newFixture(t)
	b := f.place(t, "u1", 3, 50, matchWinner(1, 1, 3.00))
	f.results.On("CurrentWeek", mock.Anything).Return(0, league.ErrDataUnavailable).Once()
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	var failed, passes atomic.Int32
	r := &Runner{
		Engine:   f.engine,
		Interval: 5 * time.Millisecond,
		OnPass: func(rep *PassReport, err error) {
			if err != nil {
				failed.Add(1)
				return
			}
			passes.Add(1)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return passes.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	assert.Equal(t, int32(1), failed.Load())
	assert.Equal(t, domain.BetWon, f.bet(t, b.ID).Status)
	// liquidada uma vez só, mesmo com várias passadas
	assert.True(t, dec("1100").Equal(f.reload(t, "u1").Balance), f.reload(t, "u1").Balance.String())
}
