package dilemma

import "fmt"

// Edge is an unordered pair of agent indices that play each other every generation.
type Edge struct {
	A int
	B int
}

// Canonical returns the sorted pair used to key the pair's history.
func (e Edge) Canonical() PairKey {
	if e.A <= e.B {
		return PairKey{Lo: e.A, Hi: e.B}
	}
	return PairKey{Lo: e.B, Hi: e.A}
}

// String formats the edge as "(a, b)".
func (e Edge) String() string {
	return fmt.Sprintf("(%d, %d)", e.A, e.B)
}

// PairKey identifies a pairing by its sorted agent indices.
type PairKey struct {
	Lo int
	Hi int
}

// PairHistory holds the moves each side played in one pairing, oldest first.
// Both sequences are append-only; only the tail is read when building inputs.
type PairHistory struct {
	Key PairKey
	Lo  []Action // moves played by agent Key.Lo
	Hi  []Action // moves played by agent Key.Hi
}

// NewPairHistory creates an empty history for the pairing.
func NewPairHistory(key PairKey) *PairHistory {
	return &PairHistory{Key: key}
}

// Moves returns the moves played by the given agent index in this pairing.
func (h *PairHistory) Moves(index int) []Action {
	if index == h.Key.Lo {
		return h.Lo
	}
	return h.Hi
}

// Record appends one simultaneous round.
func (h *PairHistory) Record(index int, own Action, opp Action) {
	if index == h.Key.Lo {
		h.Lo = append(h.Lo, own)
		h.Hi = append(h.Hi, opp)
		return
	}
	h.Hi = append(h.Hi, own)
	h.Lo = append(h.Lo, opp)
}

// Inputs builds the policy input vector for the agent at index: its own last
// window moves followed by the opponent's last window moves. Each half is
// left-padded with pad until window moves exist.
func (h *PairHistory) Inputs(index int, window int, pad float64) []float64 {
	own := h.Moves(index)
	var opp []Action
	if index == h.Key.Lo {
		opp = h.Hi
	} else {
		opp = h.Lo
	}

	inputs := make([]float64, 0, 2*window)
	inputs = appendWindow(inputs, own, window, pad)
	inputs = appendWindow(inputs, opp, window, pad)
	return inputs
}

// appendWindow appends the last window moves of seq to dst, left-padded with pad.
func appendWindow(dst []float64, seq []Action, window int, pad float64) []float64 {
	start := len(seq) - window
	for i := start; i < len(seq); i++ {
		if i < 0 {
			dst = append(dst, pad)
			continue
		}
		dst = append(dst, float64(seq[i]))
	}
	return dst
}
