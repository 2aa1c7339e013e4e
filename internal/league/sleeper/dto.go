package sleeper

import (
	"encoding/json"
	"strconv"
)

// statLine é o formato bruto de stats; o feed mistura números com strings e null
type statLine map[string]json.RawMessage

// numbers mantém só os valores numéricos
func (s statLine) numbers() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, raw := range s {
		if string(raw) == "null" {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			out[k] = v
		}
	}
	return out
}

type projectionDTO struct {
	PlayerID string   `json:"player_id"`
	Stats    statLine `json:"stats"`
}

type weeklyStatDTO struct {
	Week  int      `json:"week"`
	Stats statLine `json:"stats"`
}

// weekKey converte a chave "1".."18" do documento de stats por semana
func weekKey(k string) (int, bool) {
	w, err := strconv.Atoi(k)
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}
