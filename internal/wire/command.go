// Package wire defines the drawing commands exchanged between board clients
// and the encode/decode boundary that turns them into websocket frames.
package wire

// Kind discriminates the command types on the wire.
type Kind string

const (
	// KindDraw strokes a segment in the sender's brush color.
	KindDraw Kind = "Draw"
	// KindErase strokes a segment; receivers paint it in the board
	// background color regardless of the color carried.
	KindErase Kind = "Erase"
	// KindClear resets the whole board. It carries no payload.
	KindClear Kind = "Clear"
)

// Point is a position in canvas pixel space.
type Point struct {
	X, Y float64
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Segment is the unit of stroke synchronization: two endpoints, a brush
// diameter and a color token. A full stroke is streamed as a sequence of
// overlapping segments, never as one multi-point path.
type Segment struct {
	From  Point
	To    Point
	Width float64
	Color string
}

// Command is the in-memory form of one wire frame.
// Seg is nil exactly when Kind is KindClear.
type Command struct {
	Kind Kind
	Seg  *Segment
}
