package track

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"netsketch/internal/wire"
)

func TestStrokeProducesSteps(t *testing.T) {
	tr := New(nil)

	tr.Begin(wire.Point{X: 10, Y: 10})
	assert.Equal(t, tr.Active(), true)

	step, ok := tr.Move(wire.Point{X: 20, Y: 15})
	assert.Equal(t, ok, true)
	assert.Equal(t, step, Step{From: wire.Point{X: 10, Y: 10}, To: wire.Point{X: 20, Y: 15}})

	step, ok = tr.Move(wire.Point{X: 25, Y: 40})
	assert.Equal(t, ok, true)
	assert.Equal(t, step, Step{From: wire.Point{X: 20, Y: 15}, To: wire.Point{X: 25, Y: 40}})

	tr.End()
	assert.Equal(t, tr.Active(), false)
}

func TestMoveWithoutBeginIsDropped(t *testing.T) {
	tr := New(nil)

	_, ok := tr.Move(wire.Point{X: 5, Y: 5})
	assert.Equal(t, ok, false)

	tr.Begin(wire.Point{X: 1, Y: 1})
	tr.End()

	_, ok = tr.Move(wire.Point{X: 9, Y: 9})
	assert.Equal(t, ok, false)
}

func TestOffsetIsSubtracted(t *testing.T) {
	tr := New(func() wire.Point { return wire.Point{X: 100, Y: 50} })

	tr.Begin(wire.Point{X: 110, Y: 60})
	step, ok := tr.Move(wire.Point{X: 120, Y: 65})
	assert.Equal(t, ok, true)
	assert.Equal(t, step, Step{From: wire.Point{X: 10, Y: 10}, To: wire.Point{X: 20, Y: 15}})
}

func TestOffsetSampledPerEvent(t *testing.T) {
	// A window move mid-stroke changes the offset; each position must
	// be translated against the offset in effect when it arrived.
	off := wire.Point{X: 10, Y: 10}
	tr := New(func() wire.Point { return off })

	tr.Begin(wire.Point{X: 10, Y: 10})
	off = wire.Point{X: 20, Y: 20}

	step, ok := tr.Move(wire.Point{X: 30, Y: 30})
	assert.Equal(t, ok, true)
	assert.Equal(t, step, Step{From: wire.Point{X: 0, Y: 0}, To: wire.Point{X: 10, Y: 10}})
}

func TestBeginRestartsActiveStroke(t *testing.T) {
	tr := New(nil)

	tr.Begin(wire.Point{X: 0, Y: 0})
	tr.Begin(wire.Point{X: 50, Y: 50})

	step, ok := tr.Move(wire.Point{X: 60, Y: 60})
	assert.Equal(t, ok, true)
	assert.Equal(t, step.From, wire.Point{X: 50, Y: 50})
}
