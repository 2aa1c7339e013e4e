package producer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/pkg/contracts/events"
)

func TestBetPlacedEvent(t *testing.T) {
	created := time.Date(2025, 10, 5, 17, 0, 0, 0, time.UTC)
	b := &domain.Bet{
		ID: "b1", LeagueID: "L1", UserID: "u1", WalletID: "w1", Week: 5,
		Stake: decimal.RequireFromString("25.5"), CombinedOdds: 3.12, Type: domain.BetTypeParlay,
		Legs:      []domain.Leg{{Type: domain.LegMatchWinner}, {Type: domain.LegPlayerTopPoints}},
		CreatedAt: created,
	}

	ev := BetPlacedEvent(b)
	assert.Equal(t, events.BetPlaced{
		BetID: "b1", LeagueID: "L1", UserID: "u1", WalletID: "w1", Week: 5,
		BetType: "parlay", Legs: 2, Stake: "25.50", CombinedOdds: 3.12, TsUnixMs: created.UnixMilli(),
	}, ev)
}

func TestNoop(t *testing.T) {
	var n Noop
	require.NoError(t, n.PublishBetPlaced(context.Background(), events.BetPlaced{}))
	require.NoError(t, n.PublishBetSettled(context.Background(), events.BetSettled{}))
}
