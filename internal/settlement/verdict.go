package settlement

// Verdict é o resultado de três valores de uma perna ou de uma aposta inteira
type Verdict int

const (
	Win Verdict = iota
	Lose
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Win:
		return "WIN"
	case Lose:
		return "LOSE"
	case Unknown:
		return "UNKNOWN"
	}
	return "INVALID"
}

// Combine dobra o veredito corrente com o da próxima perna.
// done=true encerra a avaliação: o primeiro LOSE finaliza como LOSE e o primeiro
// UNKNOWN (sem LOSE anterior) adia a aposta inteira. WIN só continua.
func Combine(running, next Verdict) (out Verdict, done bool) {
	if running != Win {
		return running, true
	}
	switch next {
	case Win:
		return Win, false
	case Lose:
		return Lose, true
	default:
		return Unknown, true
	}
}

// Fold avalia as pernas em ordem com eval, parando no primeiro LOSE ou UNKNOWN.
// Lista vazia resulta em UNKNOWN: aposta sem pernas nunca é liquidada.
func Fold[L any](legs []L, eval func(L) Verdict) Verdict {
	if len(legs) == 0 {
		return Unknown
	}
	running := Win
	for _, l := range legs {
		var done bool
		running, done = Combine(running, eval(l))
		if done {
			break
		}
	}
	return running
}
