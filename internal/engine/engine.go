// Package engine turns pointer input into drawing commands and keeps
// the local board in step with the rest of the session. Everything a
// command can touch funnels through one dispatch path: local strokes
// are rendered immediately and then offered to the wire, remote frames
// are decoded and rendered, and nothing that arrives from a peer is
// ever sent back out.
package engine

import (
	"errors"
	"log/slog"
	"sync"

	"netsketch/internal/board"
	"netsketch/internal/track"
	"netsketch/internal/wire"
)

// Tool selects what a stroke does to the board.
type Tool int

const (
	ToolPen Tool = iota
	ToolEraser
)

// Defaults for a fresh engine.
const (
	DefaultBrushSize = 16
	DefaultColor     = "black"
)

// Sender carries outbound commands toward the session. Send must not
// block; the transport queues and the engine treats a send failure as
// a lost frame, never as a reason to skip local rendering.
type Sender interface {
	Send(cmd wire.Command) error
}

// Engine owns the board state transitions. All methods are safe for
// concurrent use; commands are applied one at a time in arrival order.
type Engine struct {
	mu      sync.Mutex
	surface *board.Surface
	strokes *track.Tracker
	sender  Sender
	log     *slog.Logger

	tool    Tool
	color   string
	brush   float64
	applied func()
}

// New wires an engine over a surface and a stroke tracker. Commands
// produced locally go to sender; pass nil for a board that only draws
// locally. A nil log falls back to slog.Default.
func New(surface *board.Surface, strokes *track.Tracker, sender Sender, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		surface: surface,
		strokes: strokes,
		sender:  sender,
		log:     log,
		tool:    ToolPen,
		color:   DefaultColor,
		brush:   DefaultBrushSize,
	}
}

// OnApplied registers a hook invoked after every command that changed
// the board, local or remote. The UI uses it to repaint. The hook runs
// with the engine locked and must not call back into it.
func (e *Engine) OnApplied(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = fn
}

// PointerDown starts a stroke at a window position.
func (e *Engine) PointerDown(p wire.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strokes.Begin(p)
}

// PointerMove extends the active stroke. Each movement becomes one
// command: rendered here first, then offered to the wire. Movements
// outside a stroke are ignored.
func (e *Engine) PointerMove(p wire.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	step, ok := e.strokes.Move(p)
	if !ok {
		return
	}
	cmd := e.command(step)
	e.apply(cmd)
	e.send(cmd)
}

// PointerUp finishes the active stroke.
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strokes.End()
}

// Clear wipes the board and tells everyone else to do the same.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := wire.Command{Kind: wire.KindClear}
	e.apply(cmd)
	e.send(cmd)
}

// HandleFrame dispatches one inbound wire frame. Malformed frames are
// dropped with a warning, kinds this build does not know are ignored,
// and everything that renders stays local: remote commands are never
// re-transmitted.
func (e *Engine) HandleFrame(data []byte) {
	cmd, err := wire.Decode(data)
	switch {
	case errors.Is(err, wire.ErrUnknownKind):
		e.log.Debug("ignoring frame from a newer peer", "err", err)
		return
	case err != nil:
		e.log.Warn("dropping malformed frame", "err", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(cmd)
}

// Resize adjusts the board to a new widget size.
func (e *Engine) Resize(width, height int) {
	e.surface.Resize(width, height)
}

// SetTool switches between pen and eraser.
func (e *Engine) SetTool(t Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tool = t
}

// Tool returns the active tool.
func (e *Engine) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// SetColor sets the pen color for future strokes.
func (e *Engine) SetColor(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.color = name
}

// Color returns the current pen color.
func (e *Engine) Color() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.color
}

// SetBrushSize sets the stroke width for future strokes. Values that
// could not produce a visible stroke are ignored.
func (e *Engine) SetBrushSize(w float64) {
	if w <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brush = w
}

// BrushSize returns the current stroke width.
func (e *Engine) BrushSize() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush
}

// command builds the wire command for one stroke step using the
// current tool state. Erase segments carry no color; the board paints
// them with its background regardless.
func (e *Engine) command(step track.Step) wire.Command {
	seg := &wire.Segment{From: step.From, To: step.To, Width: e.brush}
	kind := wire.KindErase
	if e.tool == ToolPen {
		kind = wire.KindDraw
		seg.Color = e.color
	}
	return wire.Command{Kind: kind, Seg: seg}
}

func (e *Engine) apply(cmd wire.Command) {
	if err := e.surface.Apply(cmd); err != nil {
		e.log.Warn("render failed", "kind", cmd.Kind, "err", err)
		return
	}
	if e.applied != nil {
		e.applied()
	}
}

func (e *Engine) send(cmd wire.Command) {
	if e.sender == nil {
		return
	}
	if err := e.sender.Send(cmd); err != nil {
		e.log.Warn("command not sent, keeping local result", "kind", cmd.Kind, "err", err)
	}
}
