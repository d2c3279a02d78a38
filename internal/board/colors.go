package board

import (
	"strings"

	"github.com/gogpu/gg"
)

// Palette lists the pen colors the toolbar offers, in display order.
// These are the names clients put on the wire.
var Palette = []string{"black", "red", "green", "blue", "yellow", "magenta", "cyan", "white"}

var named = map[string]gg.RGBA{
	"black":   gg.Black,
	"white":   gg.White,
	"red":     gg.Red,
	"green":   gg.Green,
	"blue":    gg.Blue,
	"yellow":  gg.Yellow,
	"cyan":    gg.Cyan,
	"magenta": gg.Magenta,
}

// ParseColor resolves a wire color string to a concrete color. Named
// palette entries match case-insensitively; anything else is read as a
// hex code. Unparseable values come back opaque black, so a peer with
// a richer palette still produces a visible stroke here.
func ParseColor(name string) gg.RGBA {
	if col, ok := named[strings.ToLower(name)]; ok {
		return col
	}
	return gg.Hex(name)
}
