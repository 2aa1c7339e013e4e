package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/store"
)

// Metrics recebe os eventos de colocação
type Metrics interface {
	PlacementAccepted()
	PlacementRejected(reason string)
}

type noopMetrics struct{}

func (noopMetrics) PlacementAccepted()       {}
func (noopMetrics) PlacementRejected(string) {}

// Service aplica as regras do ledger sobre o store transacional
type Service struct {
	store    store.Store
	bankroll decimal.Decimal
	log      *zap.Logger
	metrics  Metrics

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithBankroll(b decimal.Decimal) Option { return func(s *Service) { s.bankroll = b } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(st store.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:    st,
		bankroll: DefaultBankroll,
		log:      log,
		metrics:  noopMetrics{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetOrCreate retorna a carteira do participante na liga, criando com o bankroll padrão.
// Chamadas concorrentes para o mesmo participante convergem para a mesma carteira.
func (s *Service) GetOrCreate(ctx context.Context, leagueID, userID, displayName string) (*domain.Wallet, error) {
	w, err := s.store.FindWallet(ctx, leagueID, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find wallet: %w", err)
	}

	candidate := NewWallet(s.newID(), leagueID, userID, displayName, s.bankroll, s.now())
	var created bool
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		created, err = tx.InsertWallet(ctx, candidate)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	if created {
		s.log.Info("wallet created",
			zap.String("leagueId", leagueID),
			zap.String("userId", userID),
			zap.String("bankroll", s.bankroll.String()))
		return candidate, nil
	}

	// outra chamada criou primeiro
	return s.store.FindWallet(ctx, leagueID, userID)
}

// PlaceRequest descreve uma colocação de aposta
type PlaceRequest struct {
	LeagueID string
	UserID   string
	Week     int
	Stake    decimal.Decimal
	Legs     []domain.Leg
}

// PlaceWager valida e debita o stake, criando a aposta open na mesma transação
func (s *Service) PlaceWager(ctx context.Context, req PlaceRequest) (*domain.Bet, *domain.Wallet, error) {
	if req.Week < 1 {
		s.reject(req, ErrWeekUnavailable)
		return nil, nil, ErrWeekUnavailable
	}
	stake := req.Stake

	current, err := s.store.FindWallet(ctx, req.LeagueID, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	// validação antecipada, sem trava; o saldo é conferido de novo dentro da transação
	if err := Validate(current, stake, req.Legs); err != nil {
		s.reject(req, err)
		return nil, nil, err
	}

	now := s.now()
	legs := append([]domain.Leg(nil), req.Legs...)
	bet := &domain.Bet{
		ID:           s.newID(),
		WalletID:     current.ID,
		LeagueID:     req.LeagueID,
		UserID:       req.UserID,
		DisplayName:  current.DisplayName,
		Week:         req.Week,
		Stake:        stake.Round(moneyPlaces),
		CombinedOdds: domain.CombinedOdds(legs),
		Type:         domain.BetType(legs),
		Status:       domain.BetOpen,
		Legs:         legs,
		CreatedAt:    now,
	}

	var after *domain.Wallet
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		w, err := tx.LockWallet(ctx, current.ID)
		if err != nil {
			return err
		}
		if err := Validate(w, stake, legs); err != nil {
			return err
		}
		Debit(w, stake, now)
		if err := tx.UpdateWallet(ctx, w); err != nil {
			return err
		}
		if err := tx.InsertBet(ctx, bet); err != nil {
			return err
		}
		after = w
		return nil
	})
	if err != nil {
		if IsValidation(err) {
			s.reject(req, err)
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("place wager: %w", err)
	}

	s.metrics.PlacementAccepted()
	s.log.Info("bet placed",
		zap.String("betId", bet.ID),
		zap.String("userId", bet.UserID),
		zap.Int("week", bet.Week),
		zap.String("stake", stake.String()),
		zap.Float64("combinedOdds", bet.CombinedOdds),
		zap.Int("legs", len(legs)))
	return bet, after, nil
}

func (s *Service) reject(req PlaceRequest, err error) {
	s.metrics.PlacementRejected(Reason(err))
	s.log.Info("bet rejected",
		zap.String("userId", req.UserID),
		zap.String("stake", req.Stake.String()),
		zap.Error(err))
}

// IsValidation indica erro de validação de colocação (exibível ao usuário)
func IsValidation(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrInvalidStake) || errors.Is(err, ErrEmptySlip) ||
		errors.Is(err, ErrWeekUnavailable)
}

// Reason converte um erro de validação em rótulo curto para métricas
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, ErrEmptySlip):
		return "empty_slip"
	case errors.Is(err, ErrWeekUnavailable):
		return "week_unavailable"
	}
	return "other"
}
