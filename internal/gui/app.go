//go:build !nogui
// +build !nogui

package gui

import (
	"context"

	"metamod/internal/config"
	"metamod/internal/errors"
	"metamod/internal/log"
	"metamod/internal/metadata"
	"metamod/internal/session"
	"metamod/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/widget"
)

// App is the GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        *config.Config
	ctrl       *session.Controller
	model      *metadata.Table
	watcher    *watch.Watcher

	pathLabel   *widget.Label // Open file or "No file selected"
	tableView   *widget.Table
	filterEntry *widget.Entry
	keyEntry    *widget.Entry
	valueEntry  *widget.Entry
	buttons     map[string]*widget.Button
	statusLabel *widget.Label

	// spawn runs controller work off the UI goroutine and do hands UI
	// updates back to it; tests replace both to run synchronously
	spawn func(func())
	do    func(func())

	// Prompts, replaceable in tests
	chooseOpen func(func(path string))
	confirm    session.ConfirmFunc
	chooseSave session.SaveFunc
}

// NewApp creates a new GUI application
func NewApp(cfg *config.Config, tool session.Tool) *App {
	// Create app with a unique ID for preferences storage
	return newApp(app.NewWithID("io.github.metamod"), cfg, tool)
}

func newApp(fyneApp fyne.App, cfg *config.Config, tool session.Tool) *App {
	if cfg == nil {
		cfg = config.New()
	}

	a := &App{
		fyneApp: fyneApp,
		cfg:     cfg,
		model:   metadata.NewTable(),
		buttons: make(map[string]*widget.Button),
		spawn:   func(f func()) { go f() },
		do:      fyne.Do,
	}
	a.ctrl = session.NewController(tool, a.model, a,
		session.WithSuccessMessages(cfg.GUI.ShowSuccessDialogs))

	a.mainWindow = a.fyneApp.NewWindow("Metadata Editor")
	a.chooseOpen = a.openDialog
	a.confirm = a.confirmDialog
	a.chooseSave = a.saveDialog

	a.setupMainWindow()

	a.model.OnChange(func() {
		a.do(func() {
			a.tableView.Refresh()
			if a.ctrl.State() != session.OperationInFlight {
				a.statusLabel.SetText(a.statusText())
			}
		})
	})
	a.ctrl.OnStateChange(func(s session.State) {
		a.do(func() { a.applyState(s) })
	})

	if cfg.GUI.WatchFile {
		a.startWatcher()
	}

	return a
}

// GetMainWindow returns the main window instance
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// Controller returns the controller behind the window
func (a *App) Controller() *session.Controller {
	return a.ctrl
}

// Run shows the window and blocks until it is closed. A non-empty path is
// opened once the window is up.
func (a *App) Run(path string) {
	if path != "" {
		a.openPath(path)
	}
	a.mainWindow.ShowAndRun()
}

// runTask runs one controller operation in the background. The controls are
// disabled by the state change the operation causes.
func (a *App) runTask(name string, fn func(ctx context.Context) error) {
	a.spawn(func() {
		if err := fn(context.Background()); err != nil {
			log.LogWithFields(log.F("action", name), log.F("error", err)).Debug("Action did not complete")
		}
	})
}

func (a *App) openPath(path string) {
	if path == "" {
		return
	}
	if a.watcher != nil {
		if err := a.watcher.Watch(path); err != nil {
			if errors.IsFileNotFound(err) {
				// Opening reports the missing file itself
				log.LogWithError(err).Debug("Not watching file for changes")
			} else {
				log.LogWithError(err).Warn("Not watching file for changes")
			}
		}
	}
	a.runTask("open", func(ctx context.Context) error {
		return a.ctrl.Open(ctx, path)
	})
}

func (a *App) startWatcher() {
	w, err := watch.New()
	if err != nil {
		log.LogWithError(err).Warn("File watching unavailable")
		return
	}
	if err := w.Start(); err != nil {
		log.LogWithError(err).Warn("File watching unavailable")
		return
	}
	a.watcher = w

	go func() {
		for range w.Changes() {
			if _, err := a.ctrl.RefreshIfChanged(context.Background()); err != nil {
				log.LogWithError(err).Debug("Refresh after external change failed")
			}
		}
	}()
}

func (a *App) shutdown() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}
