package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"netsketch/internal/board"
	"netsketch/internal/engine"
	"netsketch/internal/wire"
)

// BoardWidget shows the shared surface and feeds pointer input to the
// sync engine. A primary button press starts a stroke, dragging
// extends it, and releasing ends it.
type BoardWidget struct {
	widget.BaseWidget
	engine  *engine.Engine
	surface *board.Surface
	raster  *canvas.Raster
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget builds the widget over an engine and the surface it
// renders. The widget repaints whenever the engine applies a command,
// local or remote.
func NewBoardWidget(eng *engine.Engine, surface *board.Surface) *BoardWidget {
	b := &BoardWidget{engine: eng, surface: surface}
	b.raster = canvas.NewRaster(func(w, h int) image.Image {
		return surface.Image()
	})
	// Remote frames reach the engine through fyne.Do, so this always
	// runs on the event loop.
	eng.OnApplied(b.raster.Refresh)
	b.ExtendBaseWidget(b)
	return b
}

// Resize keeps the drawing surface the same size as the widget, so
// pointer positions and board pixels stay interchangeable.
func (b *BoardWidget) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.engine.Resize(int(size.Width), int(size.Height))
	b.raster.Refresh()
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.engine.PointerDown(eventPoint(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.engine.PointerUp()
}

// Dragged extends the active stroke. Drags that never started with a
// primary press are dropped by the stroke tracker.
func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.engine.PointerMove(eventPoint(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.engine.PointerUp()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{board: b}
}

// Event positions are widget-local in fyne, which is exactly the
// board-local frame the engine expects.
func eventPoint(p fyne.Position) wire.Point {
	return wire.Point{X: float64(p.X), Y: float64(p.Y)}
}

type boardRenderer struct {
	board *BoardWidget
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.raster}
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.board.raster.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *boardRenderer) Refresh() {
	r.board.raster.Refresh()
}

func (r *boardRenderer) Destroy() {}
