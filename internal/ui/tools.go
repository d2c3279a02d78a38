package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"netsketch/internal/board"
	"netsketch/internal/engine"
)

// colorSwatch is a tappable square filled with one palette color.
type colorSwatch struct {
	widget.BaseWidget
	Name     string
	OnTapped func(name string)
}

func newColorSwatch(name string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Name: name, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(board.ParseColor(s.Name).Color())
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Name)
	}
}

// NewToolbar assembles the tool strip: pen and eraser, board clear,
// the export actions, the color palette, and the brush size slider.
func NewToolbar(a *App) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			a.engine.SetTool(engine.ToolPen)
		}), // Pen
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			a.engine.SetTool(engine.ToolEraser)
		}), // Eraser
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			a.engine.Clear()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.savePNG),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), a.savePDF),
	)

	// Picking a color always means drawing with it.
	onColorTapped := func(name string) {
		a.engine.SetColor(name)
		a.engine.SetTool(engine.ToolPen)
	}
	colorBox := container.NewHBox()
	for _, name := range board.Palette {
		colorBox.Add(newColorSwatch(name, onColorTapped))
	}

	// Whole-number steps: peers that type brush size as an integer
	// reject fractional frames.
	brushSlider := widget.NewSlider(1, 64)
	brushSlider.Step = 1
	brushSlider.SetValue(a.engine.BrushSize())
	brushSlider.OnChanged = func(val float64) {
		a.engine.SetBrushSize(val)
	}
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), brushSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		layout.NewSpacer(),
	)
}
