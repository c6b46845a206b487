// Package idgen generates the monotonically increasing request ids the
// session runtime uses to correlate outbound requests with their replies.
package idgen

import "sync/atomic"

// Generator produces unique, monotonically increasing ids starting at 1.
// It is safe for concurrent use by any number of request builders.
type Generator struct {
	next atomic.Uint64
}

// New returns a Generator whose first Next() call returns 1.
func New() *Generator {
	return &Generator{}
}

// Next returns the next id in sequence.
func (g *Generator) Next() uint64 {
	return g.next.Add(1)
}
