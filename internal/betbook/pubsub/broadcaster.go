// Package pubsub publica atualizações ao vivo (carteira, apostas, quadro) no Redis Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
)

const DefaultChannel = "betbook_live"

// tipos de atualização
const (
	KindWalletUpdated = "wallet_updated"
	KindBetPlaced     = "bet_placed"
	KindBetSettled    = "bet_settled"
	KindBoardUpdated  = "board_updated"
)

// Update é a mensagem que circula no canal e chega aos clientes WebSocket
// UserID vazio = atualização da liga inteira
type Update struct {
	LeagueID string          `json:"leagueId"`
	UserID   string          `json:"userId,omitempty"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

// Publisher é o pedaço do cliente Redis usado aqui
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisBroadcaster struct {
	r       Publisher
	channel string
}

func NewRedisBroadcaster(r Publisher, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, kind, leagueID, userID string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Update{LeagueID: leagueID, UserID: userID, Kind: kind, Payload: p})
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, msg).Err()
}

func (b *RedisBroadcaster) BetPlaced(ctx context.Context, bet *domain.Bet) error {
	return b.Publish(ctx, KindBetPlaced, bet.LeagueID, bet.UserID, bet)
}

func (b *RedisBroadcaster) BetSettled(ctx context.Context, bet *domain.Bet) error {
	return b.Publish(ctx, KindBetSettled, bet.LeagueID, bet.UserID, bet)
}

func (b *RedisBroadcaster) WalletUpdated(ctx context.Context, w *domain.Wallet) error {
	return b.Publish(ctx, KindWalletUpdated, w.LeagueID, w.UserID, w)
}

func (b *RedisBroadcaster) BoardUpdated(ctx context.Context, leagueID string, board league.Board) error {
	return b.Publish(ctx, KindBoardUpdated, leagueID, "", board)
}
