// Package track follows the pointer through a stroke. It translates
// window positions into board-local ones and pairs each movement with
// the position that preceded it, which is all the sync engine needs to
// build draw commands.
package track

import "netsketch/internal/wire"

// OffsetFunc reports the board origin in window coordinates. The
// tracker subtracts it from every incoming position, so callers can
// hand in whatever their toolkit uses to locate the board on screen.
type OffsetFunc func() wire.Point

// Step is one pointer movement inside an active stroke, already in
// board-local coordinates.
type Step struct {
	From wire.Point
	To   wire.Point
}

// Tracker records where the pointer last was during a stroke. It is
// driven from the UI event loop and is not safe for concurrent use.
type Tracker struct {
	offset OffsetFunc
	active bool
	last   wire.Point
}

// New returns a tracker using offset to locate the board. A nil offset
// means positions are already board-local.
func New(offset OffsetFunc) *Tracker {
	if offset == nil {
		offset = func() wire.Point { return wire.Point{} }
	}
	return &Tracker{offset: offset}
}

// Begin starts a stroke at the given window position. Beginning while
// a stroke is active restarts it from the new position.
func (t *Tracker) Begin(p wire.Point) {
	t.active = true
	t.last = t.translate(p)
}

// Move advances the stroke to a new window position and reports the
// movement as a board-local step. Movements that arrive without a
// preceding Begin are dropped, so stray drag events after a stroke
// ended never produce output.
func (t *Tracker) Move(p wire.Point) (Step, bool) {
	if !t.active {
		return Step{}, false
	}
	cur := t.translate(p)
	step := Step{From: t.last, To: cur}
	t.last = cur
	return step, true
}

// End finishes the stroke. It is safe to call when no stroke is
// active.
func (t *Tracker) End() {
	t.active = false
}

// Active reports whether a stroke is in progress.
func (t *Tracker) Active() bool {
	return t.active
}

func (t *Tracker) translate(p wire.Point) wire.Point {
	return p.Sub(t.offset())
}
