package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"

	"RoomBoard/internal/shape"
)

type AppOptions struct {
	Title  string
	Tool   shape.Tool
	Status string

	// Shapes supplies the board contents for export.
	Shapes func() []shape.Shape

	// OnStarted runs once the window is up. Anything that paints the board
	// from another goroutine must start here.
	OnStarted func()
}

// RunApp shows the board window and blocks until it is closed.
func RunApp(board *BoardWidget, poster Poster, opts AppOptions) {
	myApp := app.NewWithID("io.roomboard.client")
	myWindow := myApp.NewWindow(opts.Title)
	myWindow.Resize(fyne.NewSize(1024, 768))

	toolbar := NewToolbar(poster, opts.Tool, func() {
		showExportDialog(myWindow, board, opts.Title, opts.Shapes)
	})
	if opts.Status != "" {
		board.statusBar.SetText(opts.Status)
	}
	if opts.OnStarted != nil {
		myApp.Lifecycle().SetOnStarted(opts.OnStarted)
	}

	// Set up the main layout
	content := container.NewBorder(toolbar, board.StatusBar(), nil, nil, board)

	myWindow.SetContent(content)
	myWindow.ShowAndRun()
}
