// Package league modela os dados consumidos do provedor de fantasy (confrontos, rosters,
// projeções) e monta o quadro de odds da semana.
package league

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDataUnavailable indica falha ao obter dados do provedor; a operação deve ser refeita depois
var ErrDataUnavailable = errors.New("league data unavailable")

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrNotMember   = errors.New("not a league member")
)

// State é o indicador de semana/temporada corrente
type State struct {
	Week       int    `json:"week"`
	Season     string `json:"season"`
	SeasonType string `json:"season_type"`
}

type User struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
}

type Player struct {
	PlayerID  string `json:"player_id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      string `json:"team"`
}

// Name devolve o nome de exibição do jogador
func (p Player) Name() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.FirstName != "" || p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	return p.PlayerID
}

// PlayerScore é a pontuação realizada de um jogador num confronto
type PlayerScore struct {
	PlayerID string
	Points   float64
}

// PlayerPoints mantém a ordem do documento do provedor; o desempate de maior pontuador depende dela
type PlayerPoints []PlayerScore

// UnmarshalJSON lê um objeto {"playerId": pontos} preservando a ordem das chaves
func (pp *PlayerPoints) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*pp = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("players_points: expected object")
	}
	out := PlayerPoints{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("players_points: expected key")
		}
		var pts *float64
		if err := dec.Decode(&pts); err != nil {
			return fmt.Errorf("players_points[%s]: %w", id, err)
		}
		score := PlayerScore{PlayerID: id}
		if pts != nil {
			score.Points = *pts
		}
		out = append(out, score)
	}
	*pp = out
	return nil
}

// MarshalJSON escreve de volta como objeto, na mesma ordem
func (pp PlayerPoints) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range pp {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(s.PlayerID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.Points)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MatchupEntry é um lado de um confronto semanal, como publicado pelo provedor
type MatchupEntry struct {
	RosterID      int          `json:"roster_id"`
	MatchupID     *int         `json:"matchup_id"`
	Points        float64      `json:"points"`
	Starters      []string     `json:"starters"`
	Players       []string     `json:"players,omitempty"`
	PlayersPoints PlayerPoints `json:"players_points"`
}

// GroupID é o matchup_id, ou o roster_id quando o confronto não tem id
func (e MatchupEntry) GroupID() int {
	if e.MatchupID != nil {
		return *e.MatchupID
	}
	return e.RosterID
}

// WeeklyResult são os dados de pontuação de uma semana
type WeeklyResult struct {
	Week    int            `json:"week"`
	Entries []MatchupEntry `json:"entries"`
}

// ProjectionRow é uma linha do feed de projeções
type ProjectionRow struct {
	PlayerID string             `json:"player_id"`
	Stats    map[string]float64 `json:"stats"`
}

// WeeklyStat é a linha de estatística semanal de um jogador
type WeeklyStat struct {
	Week  int                `json:"week"`
	Stats map[string]float64 `json:"stats"`
}
