//go:build !nogui
// +build !nogui

package gui

import (
	"context"
	"fmt"

	"metamod/internal/config"
	"metamod/internal/log"
	"metamod/internal/metadata"
	"metamod/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Button labels, also used as keys into App.buttons
const (
	ButtonOpen      = "Open File"
	ButtonRefresh   = "Refresh"
	ButtonAddUpdate = "Add/Update"
	ButtonRename    = "Rename Key"
	ButtonDelete    = "Delete Tag"
	ButtonSave      = "Save File"
	ButtonClearAll  = "Remove All Metadata"
)

// Run opens the editor window for path, which may be empty, and blocks
// until it is closed
func Run(cfg *config.Config, tool session.Tool, path string) error {
	ui, err := NewFactory(cfg, tool).Create()
	if err != nil {
		return err
	}
	ui.Run(path)
	return nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}

// setupMainWindow sets up the main window content
func (a *App) setupMainWindow() {
	a.mainWindow.Resize(fyne.NewSize(float32(a.cfg.GUI.WindowWidth), float32(a.cfg.GUI.WindowHeight)))

	// --- File row ---
	a.pathLabel = widget.NewLabel(session.Session{}.Label())
	a.pathLabel.Truncation = fyne.TextTruncateEllipsis
	openButton := a.newButton(ButtonOpen, theme.FolderOpenIcon(), func() {
		a.chooseOpen(a.openPath)
	})
	refreshButton := a.newButton(ButtonRefresh, theme.ViewRefreshIcon(), a.onRefresh)
	fileRow := container.NewBorder(nil, nil, openButton, refreshButton, a.pathLabel)

	// --- Table ---
	a.tableView = a.createTable()
	a.filterEntry = widget.NewEntry()
	a.filterEntry.SetPlaceHolder("Filter keys, e.g. GPS*")
	a.filterEntry.OnChanged = func(text string) {
		if err := a.model.SetFilter(text); err != nil {
			log.LogWithFields(log.F("filter", text), log.F("error", err)).Debug("Ignoring invalid filter")
		}
	}

	// --- Edit form ---
	a.keyEntry = widget.NewEntry()
	a.valueEntry = widget.NewEntry()
	form := widget.NewForm(
		widget.NewFormItem("Key", a.keyEntry),
		widget.NewFormItem("Value/New Key", a.valueEntry),
	)

	a.newButton(ButtonAddUpdate, theme.ContentAddIcon(), a.onAddUpdate)
	a.newButton(ButtonRename, theme.DocumentCreateIcon(), a.onRename)
	a.newButton(ButtonDelete, theme.DeleteIcon(), a.onDelete)
	a.newButton(ButtonSave, theme.DocumentSaveIcon(), a.onSave)
	clearButton := a.newButton(ButtonClearAll, theme.WarningIcon(), a.onClearAll)
	clearButton.Importance = widget.DangerImportance

	buttonRow := container.NewHBox(
		a.buttons[ButtonAddUpdate],
		a.buttons[ButtonRename],
		a.buttons[ButtonDelete],
		a.buttons[ButtonSave],
		a.buttons[ButtonClearAll],
	)

	a.statusLabel = widget.NewLabel("")

	// --- Main Layout ---
	top := container.NewVBox(fileRow, a.filterEntry)
	bottom := container.NewVBox(
		widget.NewSeparator(),
		form,
		container.NewCenter(buttonRow),
		a.statusLabel,
	)
	a.mainWindow.SetContent(container.NewBorder(top, bottom, nil, nil, a.tableView))

	a.mainWindow.Canvas().SetOnTypedKey(func(ke *fyne.KeyEvent) {
		if ke.Name == fyne.KeyF5 {
			a.onRefresh()
		}
	})
	a.mainWindow.SetOnClosed(a.shutdown)
}

func (a *App) newButton(label string, icon fyne.Resource, tapped func()) *widget.Button {
	b := widget.NewButtonWithIcon(label, icon, tapped)
	a.buttons[label] = b
	return b
}

// createTable builds the two column read-only view over the model
func (a *App) createTable() *widget.Table {
	t := widget.NewTableWithHeaders(
		func() (int, int) {
			return a.model.Len(), 2
		},
		func() fyne.CanvasObject {
			l := widget.NewLabel("Template")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			e, ok := a.model.At(id.Row)
			if !ok {
				label.SetText("")
				return
			}
			if id.Col == 0 {
				label.SetText(e.Key)
			} else {
				label.SetText(e.Value)
			}
		},
	)
	t.ShowHeaderColumn = false
	t.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("Value", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	t.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		label := o.(*widget.Label)
		if id.Col == 0 {
			label.SetText("Key")
		} else {
			label.SetText("Value")
		}
	}
	t.SetColumnWidth(0, 260)
	t.SetColumnWidth(1, 560)

	t.OnSelected = func(id widget.TableCellID) {
		e, ok := a.model.At(id.Row)
		if !ok {
			return
		}
		var f metadata.Form
		f.SeedFrom(e)
		a.keyEntry.SetText(f.Key)
		a.valueEntry.SetText(f.Value)
	}
	return t
}

func (a *App) form() metadata.Form {
	return metadata.Form{Key: a.keyEntry.Text, Value: a.valueEntry.Text}
}

// applyState mirrors the controller state in the widgets
func (a *App) applyState(s session.State) {
	a.pathLabel.SetText(a.ctrl.Session().Label())

	busy := s == session.OperationInFlight
	for _, b := range a.buttons {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
	for _, e := range []*widget.Entry{a.keyEntry, a.valueEntry, a.filterEntry} {
		if busy {
			e.Disable()
		} else {
			e.Enable()
		}
	}

	if busy {
		a.statusLabel.SetText("Working...")
	} else {
		a.statusLabel.SetText(a.statusText())
	}
}

func (a *App) statusText() string {
	if !a.ctrl.Session().HasFile() {
		return ""
	}
	total, shown := a.model.Total(), a.model.Len()
	if shown == total {
		return fmt.Sprintf("%d tags", total)
	}
	return fmt.Sprintf("%d of %d tags shown", shown, total)
}

func (a *App) onRefresh() {
	a.runTask("refresh", a.ctrl.Refresh)
}

func (a *App) onAddUpdate() {
	form := a.form()
	a.runTask("add/update", func(ctx context.Context) error {
		return a.ctrl.AddUpdate(ctx, form)
	})
}

func (a *App) onRename() {
	form := a.form()
	a.runTask("rename", func(ctx context.Context) error {
		return a.ctrl.Rename(ctx, form)
	})
}

func (a *App) onDelete() {
	form := a.form()
	a.runTask("delete", func(ctx context.Context) error {
		return a.ctrl.Delete(ctx, form)
	})
}

func (a *App) onClearAll() {
	confirm := a.confirm
	if !a.cfg.GUI.ConfirmClear {
		confirm = nil
	}
	a.runTask("clear all", func(ctx context.Context) error {
		return a.ctrl.ClearAll(ctx, confirm)
	})
}

func (a *App) onSave() {
	a.runTask("save", func(ctx context.Context) error {
		return a.ctrl.Save(ctx, a.chooseSave)
	})
}
