// Package games holds the casino resolvers: random draws, per-game state machines and the
// payout model. Nothing in here talks to Discord or to the ledger.
package games

import "math/rand"

// Source is the randomness used by every draw. Tests script it; production uses math/rand.
type Source interface {
	IntN(n int) int
	Float64() float64
}

type defaultSource struct{}

func (defaultSource) IntN(n int) int { return rand.Intn(n) }

func (defaultSource) Float64() float64 { return rand.Float64() }

func DefaultSource() Source {
	return defaultSource{}
}

func sourceOrDefault(src Source) Source {
	if src == nil {
		return defaultSource{}
	}
	return src
}
