package slip

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrPlacementInFlight = errors.New("placement already in flight")

// Session guarda o estado por participante: o bilhete e a trava de colocação
type Session struct {
	LeagueID    string
	UserID      string
	DisplayName string

	mu      sync.Mutex
	slip    *Slip
	placing atomic.Bool
}

// Do executa fn com acesso exclusivo ao bilhete da sessão
func (s *Session) Do(fn func(*Slip)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.slip)
}

// BeginPlacement garante uma única colocação por vez na sessão.
// O chamador deve invocar done ao terminar.
func (s *Session) BeginPlacement() (done func(), err error) {
	if !s.placing.CompareAndSwap(false, true) {
		return nil, ErrPlacementInFlight
	}
	return func() { s.placing.Store(false) }, nil
}

// Sessions é o registro de sessões ativas, por (league, user)
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

func sessionKey(leagueID, userID string) string { return leagueID + "/" + userID }

// Open devolve a sessão existente ou cria uma nova com bilhete vazio
func (r *Sessions) Open(leagueID, userID, displayName string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := sessionKey(leagueID, userID)
	if s, ok := r.byID[k]; ok {
		return s
	}
	s := &Session{LeagueID: leagueID, UserID: userID, DisplayName: displayName, slip: New()}
	r.byID[k] = s
	return s
}

// Get devolve a sessão, se existir
func (r *Sessions) Get(leagueID, userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionKey(leagueID, userID)]
	return s, ok
}

// Close descarta a sessão (e o bilhete)
func (r *Sessions) Close(leagueID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sessionKey(leagueID, userID))
}

// CloseLeague descarta todas as sessões de uma liga (reset administrativo)
func (r *Sessions) CloseLeague(leagueID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.byID {
		if s.LeagueID == leagueID {
			delete(r.byID, k)
		}
	}
}
