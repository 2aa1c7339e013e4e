// Package producer publica os eventos de apostas no Kafka.
package producer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/fantasy-betbook/internal/domain"
	sharedkafka "github.com/radieske/fantasy-betbook/internal/shared/kafka"
	"github.com/radieske/fantasy-betbook/pkg/contracts/events"
)

// KafkaPublisher escreve bet_placed e bet_settled; a chave é o walletId
// para manter a ordem dos eventos de uma mesma carteira
type KafkaPublisher struct {
	Placed  *kafka.Writer
	Settled *kafka.Writer
	now     func() time.Time
}

func NewKafkaPublisher(placed, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Settled: settled, now: time.Now}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	if e.TsUnixMs == 0 {
		e.TsUnixMs = p.now().UnixMilli()
	}
	return sharedkafka.WriteJSON(ctx, p.Placed, e.WalletID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	if e.Ts.IsZero() {
		e.Ts = p.now().UTC()
	}
	return sharedkafka.WriteJSON(ctx, p.Settled, e.WalletID, e)
}

// Close fecha os dois writers
func (p *KafkaPublisher) Close() error {
	errPlaced := p.Placed.Close()
	if err := p.Settled.Close(); err != nil {
		return err
	}
	return errPlaced
}

// Noop descarta os eventos (STORE_DRIVER=memory / testes)
type Noop struct{}

func (Noop) PublishBetPlaced(context.Context, events.BetPlaced) error   { return nil }
func (Noop) PublishBetSettled(context.Context, events.BetSettled) error { return nil }

// BetPlacedEvent monta o evento a partir da aposta gravada
func BetPlacedEvent(b *domain.Bet) events.BetPlaced {
	return events.BetPlaced{
		BetID:        b.ID,
		LeagueID:     b.LeagueID,
		UserID:       b.UserID,
		WalletID:     b.WalletID,
		Week:         b.Week,
		BetType:      b.Type,
		Legs:         len(b.Legs),
		Stake:        b.Stake.StringFixed(2),
		CombinedOdds: b.CombinedOdds,
		TsUnixMs:     b.CreatedAt.UnixMilli(),
	}
}
