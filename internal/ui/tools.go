package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"RoomBoard/internal/render"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/state"
)

// Palette is the set of stroke colors offered by the toolbar.
var Palette = []string{shape.DefaultStyle.StrokeColor, "white", "red", "green", "blue", "yellow"}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Name     string
	Color    color.Color
	OnTapped func(name string)
}

func newColorSwatch(name string, tapped func(string)) *colorSwatch {
	c, err := render.ParseColor(name)
	if err != nil {
		slog.Warn("unknown palette color", "color", name, "error", err)
	}
	s := &colorSwatch{Name: name, Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

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

// styleState is the style being built by the toolbar controls.
type styleState struct {
	color string
	width float64
	fill  bool
}

func (s styleState) Style() shape.Style {
	st := shape.Style{StrokeWidth: s.width, StrokeColor: s.color}
	if s.fill {
		st.FillColor = s.color
	}
	return st
}

// toolButtons keeps exactly one tool button highlighted.
type toolButtons struct {
	buttons map[shape.Tool]*widget.Button
}

func (t *toolButtons) activate(tool shape.Tool) {
	for name, btn := range t.buttons {
		if name == tool {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// --- The Main Toolbar ---
func NewToolbar(poster Poster, initial shape.Tool, onExport func()) fyne.CanvasObject {
	tools := &toolButtons{buttons: make(map[shape.Tool]*widget.Button, len(shape.Tools))}
	toolBox := container.NewHBox()
	for _, tool := range shape.Tools {
		btn := widget.NewButton(string(tool), func() {
			poster.Post(state.SelectTool{Tool: tool})
			tools.activate(tool)
		})
		tools.buttons[tool] = btn
		toolBox.Add(btn)
	}
	tools.activate(initial)

	style := styleState{color: shape.DefaultStyle.StrokeColor, width: shape.DefaultStyle.StrokeWidth}
	apply := func() { poster.Post(state.SetStyle{Style: style.Style()}) }

	// --- Color Palette ---
	colorBox := container.NewHBox()
	for _, name := range Palette {
		colorBox.Add(newColorSwatch(name, func(c string) {
			style.color = c
			apply()
		}))
	}

	fill := widget.NewCheck("Fill", func(on bool) {
		style.fill = on
		apply()
	})

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 20.0)
	strokeSlider.SetValue(style.width)
	strokeSlider.OnChanged = func(val float64) {
		style.width = val
		apply()
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport), // Export PDF
	)

	return container.NewHBox(
		toolBox,
		widget.NewSeparator(),
		colorBox,
		fill,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
		actions,
	)
}
