// Package export saves the board to files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"netsketch/internal/board"
)

// PNG writes the board to w as a PNG image at its pixel size.
func PNG(w io.Writer, s *board.Surface) error {
	if err := s.EncodePNG(w); err != nil {
		return fmt.Errorf("export: encode png: %w", err)
	}
	return nil
}

// PDF writes the board to w as a single-page PDF, scaled to fit an A4
// page and centered. The page turns landscape when the board is wider
// than tall.
func PDF(w io.Writer, s *board.Surface) error {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return fmt.Errorf("export: encode png: %w", err)
	}
	bw, bh := s.Size()

	orientation := "L"
	if bh > bw {
		orientation = "P"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("board", opts, &buf)

	const margin = 10.0
	pageW, pageH := pdf.GetPageSize()
	scale := math.Min((pageW-2*margin)/float64(bw), (pageH-2*margin)/float64(bh))
	drawW := float64(bw) * scale
	drawH := float64(bh) * scale
	pdf.ImageOptions("board", (pageW-drawW)/2, (pageH-drawH)/2, drawW, drawH, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: build pdf: %w", err)
	}
	return pdf.Output(w)
}

// DefaultName builds a timestamped file name for a save dialog, for
// example netsketch-20260825-143200.png.
func DefaultName(ext string) string {
	return "netsketch-" + time.Now().Format("20060102-150405") + "." + ext
}
