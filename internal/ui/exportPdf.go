package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"RoomBoard/internal/export"
	"RoomBoard/internal/shape"
)

// showExportDialog asks for a file and writes the board to it as PDF.
func showExportDialog(win fyne.Window, board *BoardWidget, title string, shapes func() []shape.Shape) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if writer == nil {
			return // cancelled
		}
		defer func() {
			if err := writer.Close(); err != nil {
				slog.Error("closing export file failed", "error", err)
			}
		}()

		drawn := shapes()
		if err := export.PDF(writer, title, drawn); err != nil {
			slog.Error("export failed", "path", writer.URI().Path(), "error", err)
			dialog.ShowError(err, win)
			return
		}
		slog.Info("board exported", "path", writer.URI().Path(), "shapes", len(drawn))
		board.SetStatus(fmt.Sprintf("Exported %d shapes to %s", len(drawn), writer.URI().Name()))
	}, win)
	save.SetFileName(title + ".pdf")
	save.Show()
}
