package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind marks a frame whose type discriminator is not one of the
// known kinds. Receivers treat it as a forward-compatible no-op, not a fault.
var ErrUnknownKind = errors.New("unknown command kind")

// MalformedError reports an inbound frame that cannot be decoded into a
// valid command: bad JSON, a missing payload, or a payload field that is
// absent or out of range. Such frames are dropped by the receiver.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed command: %s: %v", e.Reason, e.Err)
	}
	return "malformed command: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// frame mirrors the JSON layout of one websocket message:
//
//	{"type":"Draw","data":{"prev":[x,y],"cur":[x,y],"color":"black","brush_size":16}}
//	{"type":"Clear"}
//
// Field names and ordering match the original wire format; there is no
// version field, so compatibility across client builds is best-effort.
type frame struct {
	Type string      `json:"type"`
	Data *rawSegment `json:"data,omitempty"`
}

// rawSegment uses pointers and open-ended slices so a missing field can be
// told apart from a zero value during validation.
type rawSegment struct {
	Prev      []float64 `json:"prev"`
	Cur       []float64 `json:"cur"`
	Color     *string   `json:"color,omitempty"`
	BrushSize *float64  `json:"brush_size"`
}

// Encode serializes a command to a single JSON frame.
func Encode(cmd Command) ([]byte, error) {
	f := frame{Type: string(cmd.Kind)}
	switch cmd.Kind {
	case KindDraw, KindErase:
		if cmd.Seg == nil {
			return nil, fmt.Errorf("wire: %s command without segment", cmd.Kind)
		}
		raw := &rawSegment{
			Prev:      []float64{cmd.Seg.From.X, cmd.Seg.From.Y},
			Cur:       []float64{cmd.Seg.To.X, cmd.Seg.To.Y},
			BrushSize: &cmd.Seg.Width,
		}
		// Erase frames omit the color when there is none to carry; the
		// receiver overrides it anyway.
		if cmd.Kind == KindDraw || cmd.Seg.Color != "" {
			raw.Color = &cmd.Seg.Color
		}
		f.Data = raw
	case KindClear:
	default:
		return nil, fmt.Errorf("wire: cannot encode kind %q", cmd.Kind)
	}
	return json.Marshal(f)
}

// Decode parses a single JSON frame into a command.
//
// It returns ErrUnknownKind (wrapped) for an unrecognized discriminator and
// *MalformedError for anything else that fails validation. Neither error
// leaves the command partially applied; callers drop the frame either way.
func Decode(data []byte) (Command, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Command{}, &MalformedError{Reason: "invalid frame", Err: err}
	}
	if f.Type == "" {
		return Command{}, &MalformedError{Reason: "missing type discriminator"}
	}
	switch Kind(f.Type) {
	case KindDraw:
		seg, err := f.Data.segment(true)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDraw, Seg: seg}, nil
	case KindErase:
		seg, err := f.Data.segment(false)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindErase, Seg: seg}, nil
	case KindClear:
		// A data member on Clear is tolerated and ignored.
		return Command{Kind: KindClear}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownKind, f.Type)
	}
}

// segment validates the payload of a Draw or Erase frame. colorRequired is
// true for Draw; Erase may omit the color entirely.
func (r *rawSegment) segment(colorRequired bool) (*Segment, error) {
	if r == nil {
		return nil, &MalformedError{Reason: "missing data payload"}
	}
	from, err := point("prev", r.Prev)
	if err != nil {
		return nil, err
	}
	to, err := point("cur", r.Cur)
	if err != nil {
		return nil, err
	}
	if r.BrushSize == nil {
		return nil, &MalformedError{Reason: "missing brush_size"}
	}
	if *r.BrushSize <= 0 {
		return nil, &MalformedError{Reason: fmt.Sprintf("brush_size %v is not positive", *r.BrushSize)}
	}
	if colorRequired && r.Color == nil {
		return nil, &MalformedError{Reason: "missing color"}
	}
	seg := &Segment{From: from, To: to, Width: *r.BrushSize}
	if r.Color != nil {
		seg.Color = *r.Color
	}
	return seg, nil
}

func point(field string, coords []float64) (Point, error) {
	if coords == nil {
		return Point{}, &MalformedError{Reason: "missing " + field}
	}
	if len(coords) != 2 {
		return Point{}, &MalformedError{Reason: fmt.Sprintf("%s has %d coordinates, want 2", field, len(coords))}
	}
	return Point{X: coords[0], Y: coords[1]}, nil
}
