package ui

import (
	"errors"
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"markpad/internal/content"
	"markpad/internal/export"
	"markpad/internal/state"
)

// Config carries everything the shell needs for one editing session.
type Config struct {
	Title    string
	Source   content.Source
	Type     content.Type
	Store    *state.Store
	ReadOnly bool

	// OnExport receives the encoded artifact; nil removes the export
	// control entirely.
	OnExport func(export.Artifact)
}

// RunApp assembles the window and blocks until it closes.
func RunApp(cfg Config) {
	application := app.New()
	title := cfg.Title
	if title == "" {
		title = "markpad"
	}
	win := application.NewWindow(title)
	win.Resize(fyne.NewSize(1024, 768))

	board := NewAnnotator(cfg.Store, cfg.ReadOnly)
	board.OnTextPrompt = func(commit func(string)) {
		dialog.ShowEntryDialog("Add text", "Label text", commit, win)
	}

	progress := widget.NewProgressBarInfinite()
	progress.Stop()
	progress.Hide()

	paginated := cfg.Type == content.TypePDF
	loader := content.NewLoader(cfg.Source)
	loader.OnLoaded = func(page int, raster image.Image) {
		fyne.Do(func() {
			progress.Stop()
			progress.Hide()
			if !paginated {
				page = 0 // single images carry no page tag
			}
			board.SetRaster(page, raster)
		})
	}
	loader.OnError = func(page int, err error) {
		fyne.Do(func() {
			progress.Stop()
			progress.Hide()
			dialog.ShowError(fmt.Errorf("could not load page %d: %w", page, err), win)
		})
	}
	load := func(page int) {
		progress.Show()
		progress.Start()
		loader.Load(page)
	}

	var pager *Pager
	if paginated {
		pager = NewPager(cfg.Source.PageCount(), load)
	}

	actions := container.NewHBox()
	if !cfg.ReadOnly {
		actions.Add(widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), board.Undo))
		actions.Add(widget.NewButtonWithIcon("Clear page", theme.ContentClearIcon(), board.ClearActivePage))
	}
	if cfg.OnExport != nil {
		var exporter export.Exporter
		var exportBtn *widget.Button
		exportBtn = widget.NewButtonWithIcon("Export", theme.DownloadIcon(), func() {
			exportBtn.Disable()
			overlayW, overlayH := board.OverlaySize()
			page := board.ActivePage()
			anns := cfg.Store.All()
			go func() {
				artifact, err := exporter.Run(cfg.Source, cfg.Type, anns, page, overlayW, overlayH)
				fyne.Do(func() {
					exportBtn.Enable()
					switch {
					case errors.Is(err, export.ErrBusy):
						// An earlier run is still flushing; ignore the click.
					case err != nil:
						dialog.ShowError(err, win)
					default:
						cfg.OnExport(artifact)
					}
				})
			}()
		})
		actions.Add(exportBtn)
	}

	var top fyne.CanvasObject = actions
	if !cfg.ReadOnly {
		top = container.NewHBox(NewToolbar(board), widget.NewSeparator(), actions)
	}

	var bottom fyne.CanvasObject = progress
	if pager != nil {
		bottom = container.NewVBox(pager.Object(), progress)
	}

	win.SetContent(container.NewBorder(top, bottom, nil, nil, board))

	load(1)
	win.ShowAndRun()
}
