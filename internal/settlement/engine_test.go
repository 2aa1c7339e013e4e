package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
	"github.com/radieske/fantasy-betbook/internal/ledger"
	"github.com/radieske/fantasy-betbook/internal/store"
	"github.com/radieske/fantasy-betbook/internal/store/memory"
	"github.com/radieske/fantasy-betbook/pkg/contracts/events"
)

const leagueID = "L1"

var fixedNow = time.Date(2025, 10, 14, 18, 0, 0, 0, time.UTC)

type resultsMock struct{ mock.Mock }

func (m *resultsMock) CurrentWeek(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *resultsMock) WeeklyResult(ctx context.Context, week int) (*league.WeeklyResult, error) {
	args := m.Called(ctx, week)
	var res *league.WeeklyResult
	if v := args.Get(0); v != nil {
		res = v.(*league.WeeklyResult)
	}
	return res, args.Error(1)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type fixture struct {
	store   *memory.Store
	ledger  *ledger.Service
	results *resultsMock
	engine  *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := memory.New()
	res := &resultsMock{}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		store:   st,
		ledger:  ledger.NewService(st, nil, ledger.WithClock(func() time.Time { return fixedNow })),
		results: res,
		engine:  NewEngine(st, res, leagueID, nil, opts...),
	}
}

func (f *fixture) wallet(t *testing.T, user string) *domain.Wallet {
	t.Helper()
	w, err := f.ledger.GetOrCreate(context.Background(), leagueID, user, user)
	require.NoError(t, err)
	return w
}

func (f *fixture) place(t *testing.T, user string, week int, stake int64, legs ...domain.Leg) *domain.Bet {
	t.Helper()
	f.wallet(t, user)
	b, _, err := f.ledger.PlaceWager(context.Background(), ledger.PlaceRequest{
		LeagueID: leagueID, UserID: user, Week: week, Stake: decimal.NewFromInt(stake), Legs: legs,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) reload(t *testing.T, user string) *domain.Wallet {
	t.Helper()
	w, err := f.store.FindWallet(context.Background(), leagueID, user)
	require.NoError(t, err)
	return w
}

func (f *fixture) bet(t *testing.T, id string) *domain.Bet {
	t.Helper()
	bets, err := f.store.ListBets(context.Background(), store.BetFilter{LeagueID: leagueID})
	require.NoError(t, err)
	for _, b := range bets {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("bet %s not found", id)
	return nil
}

func week3() *league.WeeklyResult {
	return &league.WeeklyResult{Week: 3, Entries: []league.MatchupEntry{
		entry(1, 1, 120, score("a", 35), score("b", 12)),
		entry(2, 1, 100, score("c", 18)),
	}}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRunPass_WonBetCreditsPayoutOnce(t *testing.T) {
	f := newFixture(t)
	b := f.place(t, "u1", 3, 50, matchWinner(1, 1, 3.00))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Won)
	assert.Equal(t, 0, report.Lost)

	w := f.reload(t, "u1")
	assert.True(t, dec("1100").Equal(w.Balance), w.Balance.String())
	assert.True(t, dec("100").Equal(w.PnL), w.PnL.String())

	settled := f.bet(t, b.ID)
	assert.Equal(t, domain.BetWon, settled.Status)
	require.NotNil(t, settled.Payout)
	assert.True(t, dec("150").Equal(*settled.Payout))
	require.NotNil(t, settled.SettledAt)
	assert.Equal(t, fixedNow, *settled.SettledAt)

	// segunda passada seguida não credita de novo
	report, err = f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Considered)
	assert.True(t, dec("1100").Equal(f.reload(t, "u1").Balance))
}

func TestRunPass_LostBetOnlyMovesPnL(t *testing.T) {
	f := newFixture(t)
	b := f.place(t, "u1", 3, 50, matchWinner(1, 2, 2.10))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Lost)

	w := f.reload(t, "u1")
	assert.True(t, dec("950").Equal(w.Balance), w.Balance.String())
	assert.True(t, dec("-50").Equal(w.PnL), w.PnL.String())

	settled := f.bet(t, b.ID)
	assert.Equal(t, domain.BetLost, settled.Status)
	assert.Nil(t, settled.Payout)
	assert.NotNil(t, settled.SettledAt)
}

func TestRunPass_CurrentWeekNeverSettled(t *testing.T) {
	f := newFixture(t)
	b := f.place(t, "u1", 4, 20, matchWinner(1, 1, 1.50))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Considered)
	assert.Equal(t, domain.BetOpen, f.bet(t, b.ID).Status)
	f.results.AssertNotCalled(t, "WeeklyResult", mock.Anything, 4)
}

func TestRunPass_DeferredUntilDataThenLostExactlyOnce(t *testing.T) {
	f := newFixture(t)
	// perna 1 ganha; perna 2 (confronto 2) ainda sem dados
	b := f.place(t, "u1", 3, 40, matchWinner(1, 1, 1.50), matchWinner(2, 3, 1.80))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil).Once()

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deferred)
	assert.Equal(t, domain.BetOpen, f.bet(t, b.ID).Status)
	assert.True(t, dec("0").Equal(f.reload(t, "u1").PnL))

	complete := week3()
	complete.Entries = append(complete.Entries, entry(3, 2, 80), entry(4, 2, 95))
	f.results.On("WeeklyResult", mock.Anything, 3).Return(complete, nil)

	var wg sync.WaitGroup
	reports := make([]*PassReport, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.engine.RunPass(context.Background())
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	lost := 0
	for _, r := range reports {
		if r != nil {
			lost += r.Lost
		}
	}
	assert.Equal(t, 1, lost, "only one pass settles the bet")

	w := f.reload(t, "u1")
	assert.True(t, dec("-40").Equal(w.PnL), w.PnL.String())
	assert.True(t, dec("960").Equal(w.Balance), w.Balance.String())
	assert.Equal(t, domain.BetLost, f.bet(t, b.ID).Status)
}

func TestCommit_LosingRacerIsDiscarded(t *testing.T) {
	f := newFixture(t)
	b := f.place(t, "u1", 3, 50, matchWinner(1, 1, 3.00))
	stale := b.Clone()

	settled, conflicts, err := f.engine.commit(context.Background(), []decision{{bet: b, verdict: Win}})
	require.NoError(t, err)
	assert.Len(t, settled, 1)
	assert.Equal(t, 0, conflicts)

	// outra passada com a mesma leitura antiga
	settled, conflicts, err = f.engine.commit(context.Background(), []decision{{bet: stale, verdict: Win}})
	require.NoError(t, err)
	assert.Empty(t, settled)
	assert.Equal(t, 1, conflicts)

	w := f.reload(t, "u1")
	assert.True(t, dec("1100").Equal(w.Balance), w.Balance.String())
	assert.True(t, dec("100").Equal(w.PnL), w.PnL.String())
}

func TestRunPass_ConcurrentPassesSettleEachBetOnce(t *testing.T) {
	f := newFixture(t)
	users := []string{"u1", "u2", "u3"}
	for i := 0; i < 12; i++ {
		f.place(t, users[i%len(users)], 3, 10, matchWinner(1, 1, 2.00))
	}
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.engine.RunPass(context.Background())
			if assert.NoError(t, err) {
				mu.Lock()
				won += r.Won
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 12, won)
	for _, u := range users {
		w := f.reload(t, u)
		// 4 apostas de 10 a 2.00: 1000 - 40 + 80
		assert.True(t, dec("1040").Equal(w.Balance), "%s balance %s", u, w.Balance)
		assert.True(t, dec("40").Equal(w.PnL), "%s pnl %s", u, w.PnL)
	}
}

func TestRunPass_FetchesEachWeekOnceAndSkipsUnavailable(t *testing.T) {
	f := newFixture(t)
	b2 := f.place(t, "u1", 2, 10, teamTop(1, 4.0))
	b3a := f.place(t, "u1", 3, 10, teamTop(1, 4.0))
	b3b := f.place(t, "u2", 3, 10, playerTop("a", 6.0))

	f.results.On("CurrentWeek", mock.Anything).Return(5, nil)
	f.results.On("WeeklyResult", mock.Anything, 2).Return(nil, fmt.Errorf("matchups: %w", league.ErrDataUnavailable))
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, report.SkippedWeeks)
	assert.Equal(t, 3, report.Considered)
	assert.Equal(t, 2, report.Won)
	f.results.AssertNumberOfCalls(t, "WeeklyResult", 2)

	assert.Equal(t, domain.BetOpen, f.bet(t, b2.ID).Status)
	assert.Equal(t, domain.BetWon, f.bet(t, b3a.ID).Status)
	assert.Equal(t, domain.BetWon, f.bet(t, b3b.ID).Status)
}

func TestRunPass_StorageFailureCommitsNothing(t *testing.T) {
	f := newFixture(t)
	a := f.place(t, "u1", 3, 50, matchWinner(1, 1, 3.00))
	b := f.place(t, "u2", 3, 50, matchWinner(1, 2, 3.00))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)

	f.store.FailOn("UpdateWallet", errors.New("connection reset"))
	_, err := f.engine.RunPass(context.Background())
	require.Error(t, err)

	assert.Equal(t, domain.BetOpen, f.bet(t, a.ID).Status)
	assert.Equal(t, domain.BetOpen, f.bet(t, b.ID).Status)
	assert.True(t, dec("950").Equal(f.reload(t, "u1").Balance))
	assert.True(t, dec("0").Equal(f.reload(t, "u2").PnL))

	// próxima passada, sem falha, resolve tudo
	f.store.FailOn("UpdateWallet", nil)
	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Won)
	assert.Equal(t, 1, report.Lost)
}

func TestRunPass_CurrentWeekUnavailable(t *testing.T) {
	f := newFixture(t)
	f.results.On("CurrentWeek", mock.Anything).Return(0, league.ErrDataUnavailable)

	_, err := f.engine.RunPass(context.Background())
	assert.ErrorIs(t, err, league.ErrDataUnavailable)
}

func TestRunPass_PublishesAfterCommitAndIgnoresPublishErrors(t *testing.T) {
	pub := &publisherMock{}
	f := newFixture(t, WithPublisher(pub))
	b := f.place(t, "u1", 3, 50, matchWinner(1, 1, 3.00))
	f.results.On("CurrentWeek", mock.Anything).Return(4, nil)
	f.results.On("WeeklyResult", mock.Anything, 3).Return(week3(), nil)
	pub.On("PublishBetSettled", mock.Anything, mock.MatchedBy(func(e events.BetSettled) bool {
		return e.BetID == b.ID && e.Status == "won" && e.Payout == "150.00" && e.Stake == "50.00"
	})).Return(errors.New("broker down"))

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Won)
	pub.AssertExpectations(t)
	assert.Equal(t, domain.BetWon, f.bet(t, b.ID).Status)
}
