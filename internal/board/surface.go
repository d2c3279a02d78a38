// Package board keeps the shared picture. A Surface is an in-memory
// raster that drawing commands are applied to; every client ends up
// with the same pixels because every client applies the same commands.
package board

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gg"

	"netsketch/internal/wire"
)

// DefaultWidth and DefaultHeight size a freshly created board.
const (
	DefaultWidth  = 960
	DefaultHeight = 640
)

// Surface is the rendered board. It is safe for concurrent use: the
// command dispatcher writes while the widget painter and exporters
// read.
type Surface struct {
	mu sync.RWMutex
	dc *gg.Context
	bg gg.RGBA
}

// New returns a white board of the given size. Dimensions below one
// pixel are clamped so a surface always has somewhere to paint.
func New(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dc := gg.NewContext(width, height)
	bg := gg.White
	dc.ClearWithColor(bg)
	return &Surface{dc: dc, bg: bg}
}

// Apply renders a single command. Draw and Erase require a segment;
// Clear never carries one.
func (s *Surface) Apply(cmd wire.Command) error {
	switch cmd.Kind {
	case wire.KindDraw:
		if cmd.Seg == nil {
			return fmt.Errorf("board: draw command without segment")
		}
		return s.Draw(*cmd.Seg)
	case wire.KindErase:
		if cmd.Seg == nil {
			return fmt.Errorf("board: erase command without segment")
		}
		return s.Erase(*cmd.Seg)
	case wire.KindClear:
		s.Clear()
		return nil
	default:
		return fmt.Errorf("board: no renderer for kind %q", cmd.Kind)
	}
}

// Draw paints a round-capped line segment in the segment's color.
func (s *Surface) Draw(seg wire.Segment) error {
	return s.stroke(seg, ParseColor(seg.Color))
}

// Erase paints the same segment shape in the background color. Any
// color carried by the segment is ignored, so erasing always restores
// the paper no matter what a peer put on the wire.
func (s *Surface) Erase(seg wire.Segment) error {
	return s.stroke(seg, s.bg)
}

func (s *Surface) stroke(seg wire.Segment, col gg.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.SetStroke(gg.RoundStroke().WithWidth(seg.Width))
	s.dc.SetStrokeBrush(gg.Solid(col))
	s.dc.DrawLine(seg.From.X, seg.From.Y, seg.To.X, seg.To.Y)
	return s.dc.Stroke()
}

// Clear wipes the board back to the background color. Clearing an
// already blank board leaves it blank.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.ClearWithColor(s.bg)
}

// Image returns a copy of the current pixels.
func (s *Surface) Image() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.Image()
}

// Size returns the board dimensions in pixels.
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.Width(), s.dc.Height()
}

// Resize grows or shrinks the board, keeping existing content anchored
// at the top-left corner. Shrinking crops; growing exposes fresh
// background.
func (s *Surface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.dc.Width() && height == s.dc.Height() {
		return
	}
	old := s.dc.Image()
	crop := image.Rect(0, 0, min(s.dc.Width(), width), min(s.dc.Height(), height))
	dc := gg.NewContext(width, height)
	dc.ClearWithColor(s.bg)
	dc.DrawImageEx(gg.ImageBufFromImage(old), gg.DrawImageOptions{
		SrcRect:       &crop,
		Interpolation: gg.InterpNearest,
	})
	_ = s.dc.Close()
	s.dc = dc
}

// EncodePNG writes the current pixels as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.EncodePNG(w)
}

// Close releases the drawing context. The surface must not be used
// afterwards.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.Close()
}
