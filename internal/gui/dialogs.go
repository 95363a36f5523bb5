//go:build !nogui
// +build !nogui

package gui

import (
	"fmt"
	"path/filepath"
	"strings"

	"metamod/internal/errors"
	"metamod/internal/log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// Info implements session.Reporter
func (a *App) Info(title, message string) {
	a.do(func() {
		dialog.ShowInformation(title, message, a.mainWindow)
	})
}

// Warn implements session.Reporter
func (a *App) Warn(message string) {
	a.do(func() {
		dialog.ShowInformation("Warning", message, a.mainWindow)
	})
}

// Error implements session.Reporter. Closing the dialog acknowledges the
// failure so the controller can leave its failed state.
func (a *App) Error(title string, err error) {
	a.do(func() {
		d := dialog.NewError(fmt.Errorf("%s:\n%s", title, errors.UserMessage(err)), a.mainWindow)
		d.SetOnClosed(a.ctrl.Acknowledge)
		d.Show()
	})
}

// ShowError displays an error dialog outside of any controller operation
func (a *App) ShowError(message string, err error) {
	log.LogWithError(err).Error(message)
	dialog.ShowError(fmt.Errorf("%s: %w", message, err), a.mainWindow) // Keep formatting here as we combine msg+err
}

// ShowInfo displays an information dialog
func (a *App) ShowInfo(message string) {
	dialog.ShowInformation("Info", message, a.mainWindow)
}

// openDialog asks for the file to edit and passes its path to done.
// Runs on the UI goroutine.
func (a *App) openDialog(done func(path string)) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.ShowError("Could not open file", err)
			return
		}
		if reader == nil {
			// Cancelled
			return
		}
		path := reader.URI().Path()
		reader.Close()
		done(path)
	}, a.mainWindow)

	if current := a.ctrl.Session().Path; current != "" {
		setDialogLocation(d, filepath.Dir(current))
	}
	d.Show()
}

// confirmDialog blocks the calling background goroutine until the user
// answers. It must not be called on the UI goroutine.
func (a *App) confirmDialog(title, message string) bool {
	answer := make(chan bool, 1)
	a.do(func() {
		d := dialog.NewConfirm(title, message, func(ok bool) {
			answer <- ok
		}, a.mainWindow)
		d.SetConfirmImportance(widget.DangerImportance)
		d.Show()
	})
	return <-answer
}

// saveDialog blocks the calling background goroutine until the user picks
// an export destination or cancels. It only collects a path: a file save
// dialog would create, and so truncate, the chosen file before the tool runs.
func (a *App) saveDialog(suggested string) (string, bool) {
	result := make(chan string, 1)
	a.do(func() {
		entry := widget.NewEntry()
		entry.SetText(suggested)

		browse := widget.NewButton("Browse...", func() {
			d := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
				if err != nil || dir == nil {
					return
				}
				entry.SetText(destinationIn(dir.Path(), entry.Text, suggested))
			}, a.mainWindow)
			setDialogLocation(d, filepath.Dir(entry.Text))
			d.Show()
		})

		items := []*widget.FormItem{
			widget.NewFormItem("Save copy as", container.NewBorder(nil, nil, nil, browse, entry)),
		}
		d := dialog.NewForm("Save File", "Save", "Cancel", items, func(ok bool) {
			if !ok {
				result <- ""
				return
			}
			result <- strings.TrimSpace(entry.Text)
		}, a.mainWindow)
		d.Resize(fyne.NewSize(560, d.MinSize().Height))
		d.Show()
	})

	path := <-result
	return path, path != ""
}

// destinationIn moves the file name of current, or of fallback when current
// is blank, into dir
func destinationIn(dir, current, fallback string) string {
	name := filepath.Base(strings.TrimSpace(current))
	if name == "." || name == string(filepath.Separator) {
		name = filepath.Base(fallback)
	}
	return filepath.Join(dir, name)
}

func setDialogLocation(d *dialog.FileDialog, dir string) {
	lister, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return
	}
	d.SetLocation(lister)
}
