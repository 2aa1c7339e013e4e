package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// LeagueID: obrigatório para subscribe/unsubscribe
// UserID: opcional; com ele o cliente recebe também as atualizações privadas (carteira)
type ClientMsg struct {
	Type     string `json:"type"`
	LeagueID string `json:"leagueId"`
	UserID   string `json:"userId,omitempty"`
}
