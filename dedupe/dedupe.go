// Package dedupe suppresses repeated delivery of the card that was just delivered.
package dedupe

import "cardrelay/uid"

// Gate remembers the most recently delivered token. Only the last value is
// kept, so presenting another card and then the original again lets the
// original through.
type Gate struct {
	last uid.Token
}

// New returns a Gate with an empty slot.
func New() *Gate {
	return &Gate{}
}

// ShouldAttempt returns false only when candidate is the last delivered token.
func (g *Gate) ShouldAttempt(candidate uid.Token) bool {
	return g.last == "" || candidate != g.last
}

// RecordDelivered overwrites the slot. Call it only after a confirmed delivery
// of token.
func (g *Gate) RecordDelivered(token uid.Token) {
	g.last = token
}

// Last returns the last delivered token, or "" if nothing was delivered yet.
func (g *Gate) Last() uid.Token {
	return g.last
}
