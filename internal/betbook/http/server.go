package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/betbook/dto"
	"github.com/radieske/fantasy-betbook/internal/betbook/producer"
	"github.com/radieske/fantasy-betbook/internal/domain"
	"github.com/radieske/fantasy-betbook/internal/league"
	"github.com/radieske/fantasy-betbook/internal/ledger"
	"github.com/radieske/fantasy-betbook/internal/settlement"
	"github.com/radieske/fantasy-betbook/internal/slip"
	"github.com/radieske/fantasy-betbook/internal/store"
	"github.com/radieske/fantasy-betbook/pkg/contracts/events"
)

const (
	defaultBetsLimit = 50
	maxBetsLimit     = 200
	backgroundPass   = 30 * time.Second
)

// BoardSource monta o quadro de odds da liga; week <= 0 usa a semana corrente
type BoardSource interface {
	Board(ctx context.Context, leagueID string, week int) (league.Board, error)
	CurrentWeek(ctx context.Context) (int, error)
}

type Settler interface {
	RunPass(ctx context.Context) (*settlement.PassReport, error)
}

type EventPublisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// MemberResolver confere se o participante pertence à liga
type MemberResolver interface {
	Resolve(ctx context.Context, userID, username string) (league.User, error)
}

// Notifier empurra atualizações ao vivo (Redis Pub/Sub -> WebSocket)
type Notifier interface {
	BetPlaced(ctx context.Context, b *domain.Bet) error
	WalletUpdated(ctx context.Context, w *domain.Wallet) error
}

// API expõe os endpoints REST do betbook para uma única liga (LeagueID)
// Members, Events, Notify e WS são opcionais
type API struct {
	Ledger      *ledger.Service
	Store       store.Store
	Sessions    *slip.Sessions
	Boards      BoardSource
	Members     MemberResolver
	Settler     Settler
	Events      EventPublisher
	Notify      Notifier
	WS          http.Handler
	LeagueID    string
	AdminSecret string
	Log         *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/leagues/{league}", func(r chi.Router) {
		r.Use(a.knownLeague)
		r.Post("/sessions", a.openSession)
		r.Get("/wallets/{user}", a.getWallet)
		r.Get("/board", a.getBoard)
		r.Get("/leaderboard", a.leaderboard)
		r.Get("/bets", a.leagueBets)
		r.Get("/users/{user}/bets", a.userBets)
		r.Post("/reset", a.reset)

		r.Route("/sessions/{user}/slip", func(r chi.Router) {
			r.Get("/", a.getSlip)
			r.Delete("/", a.clearSlip)
			r.Post("/legs", a.addLeg)
			r.Delete("/legs/{index}", a.removeLeg)
			r.Post("/place", a.placeSlip)
		})
	})
	r.Post("/v1/settlement/run", a.runSettlement)
	if a.WS != nil {
		r.Handle("/ws", a.WS)
	}
	return r
}

func (a *API) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// statusFor mapeia os erros de domínio para status HTTP
func statusFor(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound), errors.Is(err, slip.ErrLegIndex), errors.Is(err, league.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, league.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, slip.ErrPlacementInFlight):
		return http.StatusConflict
	case errors.Is(err, league.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeMsg(w, status, err.Error())
}

func (a *API) knownLeague(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "league") != a.LeagueID {
			writeMsg(w, http.StatusNotFound, "unknown league")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func slipView(s *slip.Slip) dto.SlipResponse {
	legs := s.Legs()
	if legs == nil {
		legs = []domain.Leg{}
	}
	out := dto.SlipResponse{Legs: legs, CombinedOdds: s.CombinedOdds()}
	if len(legs) > 0 {
		out.Type = s.Type()
	}
	return out
}

// session devolve a sessão aberta do participante ou responde 404
func (a *API) session(w http.ResponseWriter, r *http.Request) (*slip.Session, bool) {
	sess, ok := a.Sessions.Get(a.LeagueID, chi.URLParam(r, "user"))
	if !ok {
		writeMsg(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// openSession cria (ou reabre) a carteira e a sessão do participante
// e dispara uma passada de liquidação em segundo plano
func (a *API) openSession(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" && (a.Members == nil || req.Username == "") {
		writeMsg(w, http.StatusBadRequest, "userId required")
		return
	}
	// só membros da liga recebem carteira
	if a.Members != nil {
		u, err := a.Members.Resolve(r.Context(), req.UserID, req.Username)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		req.UserID = u.UserID
		if req.DisplayName == "" {
			req.DisplayName = u.DisplayName
		}
	}
	if req.DisplayName == "" {
		req.DisplayName = req.UserID
	}

	wallet, err := a.Ledger.GetOrCreate(r.Context(), a.LeagueID, req.UserID, req.DisplayName)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	sess := a.Sessions.Open(a.LeagueID, req.UserID, req.DisplayName)
	a.settleInBackground()

	resp := dto.SessionResponse{Wallet: wallet}
	sess.Do(func(s *slip.Slip) { resp.Slip = slipView(s) })
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) settleInBackground() {
	if a.Settler == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundPass)
		defer cancel()
		if _, err := a.Settler.RunPass(ctx); err != nil {
			a.log().Warn("background settlement failed", zap.Error(err))
		}
	}()
}

func (a *API) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := a.Store.FindWallet(r.Context(), a.LeagueID, chi.URLParam(r, "user"))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (a *API) getBoard(w http.ResponseWriter, r *http.Request) {
	week := 0
	if v := r.URL.Query().Get("week"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeMsg(w, http.StatusBadRequest, "invalid week")
			return
		}
		week = n
	}
	board, err := a.Boards.Board(r.Context(), a.LeagueID, week)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	wallets, err := a.Store.ListWallets(r.Context(), a.LeagueID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]dto.LeaderboardEntry, 0, len(wallets))
	for i, wl := range wallets {
		out = append(out, dto.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      wl.UserID,
			DisplayName: wl.DisplayName,
			Balance:     wl.Balance,
			PnL:         wl.PnL,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func parseLimit(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultBetsLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > maxBetsLimit {
		n = maxBetsLimit
	}
	return n, true
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request, f store.BetFilter) {
	limit, ok := parseLimit(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid limit")
		return
	}
	f.Limit = limit
	bets, err := a.Store.ListBets(r.Context(), f)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if bets == nil {
		bets = []*domain.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// leagueBets é o feed da liga, mais recentes primeiro
func (a *API) leagueBets(w http.ResponseWriter, r *http.Request) {
	a.listBets(w, r, store.BetFilter{LeagueID: a.LeagueID})
}

func (a *API) userBets(w http.ResponseWriter, r *http.Request) {
	a.listBets(w, r, store.BetFilter{LeagueID: a.LeagueID, UserID: chi.URLParam(r, "user")})
}

func (a *API) getSlip(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var resp dto.SlipResponse
	sess.Do(func(s *slip.Slip) { resp = slipView(s) })
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) clearSlip(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var resp dto.SlipResponse
	sess.Do(func(s *slip.Slip) {
		s.Clear()
		resp = slipView(s)
	})
	writeJSON(w, http.StatusOK, resp)
}

// addLeg precifica a seleção pelo quadro corrente; o cliente nunca informa odds
func (a *API) addLeg(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req dto.AddLegRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "bad json")
		return
	}

	board, err := a.Boards.Board(r.Context(), a.LeagueID, 0)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}

	var add func(*slip.Slip) bool
	switch req.Type {
	case domain.LegMatchWinner:
		side, found := board.MatchupSide(req.MatchupID, req.WinnerRosterID)
		if found {
			add = func(s *slip.Slip) bool {
				return s.AddMatchWinner(req.MatchupID, req.WinnerRosterID, side.Owner, side.Odds)
			}
		}
	case domain.LegTeamTopPoints:
		team, found := board.Team(req.RosterID)
		if found {
			add = func(s *slip.Slip) bool { return s.AddTeamTop(req.RosterID, team.Owner, team.Odds) }
		}
	case domain.LegPlayerTopPoints:
		p, found := board.Player(req.PlayerID)
		if found {
			add = func(s *slip.Slip) bool { return s.AddPlayerTop(req.PlayerID, p.Name, p.Odds) }
		}
	default:
		writeMsg(w, http.StatusBadRequest, "unknown leg type")
		return
	}
	if add == nil {
		writeMsg(w, http.StatusUnprocessableEntity, "selection not on board")
		return
	}

	var resp dto.SlipResponse
	sess.Do(func(s *slip.Slip) {
		changed := add(s)
		resp = slipView(s)
		resp.Changed = &changed
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) removeLeg(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid index")
		return
	}
	var resp dto.SlipResponse
	sess.Do(func(s *slip.Slip) {
		err = s.Remove(i)
		resp = slipView(s)
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// placeSlip coloca as pernas do bilhete para a semana corrente.
// Uma colocação por sessão por vez; em caso de sucesso as pernas colocadas saem do bilhete.
func (a *API) placeSlip(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req dto.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "bad json")
		return
	}

	done, err := sess.BeginPlacement()
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	defer done()

	week, err := a.Boards.CurrentWeek(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}

	var legs []domain.Leg
	sess.Do(func(s *slip.Slip) { legs = s.Legs() })

	bet, wallet, err := a.Ledger.PlaceWager(r.Context(), ledger.PlaceRequest{
		LeagueID: a.LeagueID,
		UserID:   sess.UserID,
		Week:     week,
		Stake:    req.Stake,
		Legs:     legs,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	sess.Do(func(s *slip.Slip) { s.RemovePlaced(legs) })

	// eventos e atualizações ao vivo são best-effort; a aposta já está gravada
	ctx := context.WithoutCancel(r.Context())
	if a.Events != nil {
		if err := a.Events.PublishBetPlaced(ctx, producer.BetPlacedEvent(bet)); err != nil {
			a.log().Warn("publish bet_placed failed", zap.String("betId", bet.ID), zap.Error(err))
		}
	}
	if a.Notify != nil {
		if err := a.Notify.BetPlaced(ctx, bet); err != nil {
			a.log().Warn("notify bet placed failed", zap.String("betId", bet.ID), zap.Error(err))
		}
		if err := a.Notify.WalletUpdated(ctx, wallet); err != nil {
			a.log().Warn("notify wallet failed", zap.String("walletId", wallet.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, dto.PlaceResponse{Bet: bet, Wallet: wallet})
}

// reset apaga apostas e carteiras da liga; exige X-Admin-Secret
// e fica desabilitado quando o segredo configurado é vazio
func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Admin-Secret")
	if a.AdminSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.AdminSecret)) != 1 {
		writeMsg(w, http.StatusForbidden, "forbidden")
		return
	}
	if err := a.Store.ResetLeague(r.Context(), a.LeagueID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.Sessions.CloseLeague(a.LeagueID)
	a.log().Warn("league reset", zap.String("leagueId", a.LeagueID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (a *API) runSettlement(w http.ResponseWriter, r *http.Request) {
	if a.Settler == nil {
		writeMsg(w, http.StatusServiceUnavailable, "settlement disabled")
		return
	}
	report, err := a.Settler.RunPass(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
