// Package tui is a terminal front end for the metadata editor built on
// Bubble Tea. It drives the same controller as the desktop window.
package tui

import (
	"context"
	"fmt"
	"strings"

	"metamod/internal/config"
	"metamod/internal/log"
	"metamod/internal/metadata"
	"metamod/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusKey
	focusValue
	focusFilter
)

type mode int

const (
	modeNormal mode = iota
	modeConfirmClear
	modeSavePath
)

// opDoneMsg is delivered when a controller operation finishes
type opDoneMsg struct {
	action string
	err    error
}

type Model struct {
	ctrl     *session.Controller
	reporter *StatusReporter
	openPath string

	table       table.Model
	keyInput    textinput.Model
	valueInput  textinput.Model
	filterInput textinput.Model
	pathInput   textinput.Model
	help        help.Model
	keys        keyMap

	focus  focusArea
	mode   mode
	busy   bool
	status Status

	width  int
	height int
}

// New creates the model. reporter must be the one the controller reports to.
// A non-empty path is opened by Init.
func New(ctrl *session.Controller, reporter *StatusReporter, path string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Key", Width: 30},
			{Title: "Value", Width: 50},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	keyInput := textinput.New()
	keyInput.Placeholder = "Tag name"
	keyInput.Prompt = ""

	valueInput := textinput.New()
	valueInput.Placeholder = "Value, or the new key when renaming"
	valueInput.Prompt = ""

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter keys, e.g. GPS*"
	filterInput.Prompt = "/ "

	pathInput := textinput.New()
	pathInput.Prompt = "Save copy as: "

	return &Model{
		ctrl:        ctrl,
		reporter:    reporter,
		openPath:    path,
		table:       t,
		keyInput:    keyInput,
		valueInput:  valueInput,
		filterInput: filterInput,
		pathInput:   pathInput,
		help:        help.New(),
		keys:        defaultKeyMap(),
	}
}

// Run wires a controller to tool and runs the terminal UI until the user quits
func Run(cfg *config.Config, tool session.Tool, path string) error {
	reporter := NewStatusReporter()
	ctrl := session.NewController(tool, nil, reporter,
		session.WithSuccessMessages(cfg.GUI.ShowSuccessDialogs))

	p := tea.NewProgram(New(ctrl, reporter, path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	if m.openPath == "" {
		return nil
	}
	path := m.openPath
	return m.run("open", func(ctx context.Context) error {
		return m.ctrl.Open(ctx, path)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case opDoneMsg:
		return m.handleDone(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

// run starts a controller operation as a command. Input is ignored until
// its opDoneMsg arrives.
func (m *Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	m.reporter.Clear()
	m.status = Status{Level: LevelInfo, Text: "Working..."}
	return func() tea.Msg {
		return opDoneMsg{action: action, err: fn(context.Background())}
	}
}

func (m *Model) handleDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		log.LogWithFields(log.F("action", msg.action), log.F("error", msg.err)).Debug("Action did not complete")
	}
	m.syncRows()
	m.status = m.reporter.Last()
	// The status line is the error display; nothing else to dismiss
	m.ctrl.Acknowledge()
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch m.mode {
	case modeConfirmClear:
		return m.handleConfirmKeys(msg)
	case modeSavePath:
		return m.handleSaveKeys(msg)
	}

	if key.Matches(msg, m.keys.Focus) {
		m.setFocus((m.focus + 1) % 4)
		return m, nil
	}

	switch m.focus {
	case focusTable:
		return m.handleTableKeys(msg)
	case focusFilter:
		return m.handleFilterKeys(msg)
	default:
		return m.handleInputKeys(msg)
	}
}

func (m *Model) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Select):
		m.seedFromSelection()
		m.setFocus(focusKey)
		return m, nil
	case key.Matches(msg, m.keys.AddUpdate):
		return m, m.addUpdate()
	case key.Matches(msg, m.keys.Rename):
		form := m.form()
		return m, m.run("rename", func(ctx context.Context) error {
			return m.ctrl.Rename(ctx, form)
		})
	case key.Matches(msg, m.keys.Delete):
		form := m.form()
		return m, m.run("delete", func(ctx context.Context) error {
			return m.ctrl.Delete(ctx, form)
		})
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("refresh", m.ctrl.Refresh)
	case key.Matches(msg, m.keys.ClearAll):
		if !m.ctrl.Session().HasFile() {
			// The controller rejects it with its usual warning
			return m, m.run("clear all", func(ctx context.Context) error {
				return m.ctrl.ClearAll(ctx, nil)
			})
		}
		m.mode = modeConfirmClear
		return m, nil
	case key.Matches(msg, m.keys.Save):
		sess := m.ctrl.Session()
		if !sess.HasFile() {
			return m, m.run("save", func(ctx context.Context) error {
				return m.ctrl.Save(ctx, nil)
			})
		}
		m.mode = modeSavePath
		m.pathInput.SetValue(session.SuggestCopyName(sess.Path))
		m.pathInput.CursorEnd()
		return m, m.pathInput.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.setFocus(focusFilter)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setFocus(focusTable)
		return m, nil
	case msg.Type == tea.KeyEnter:
		return m, m.addUpdate()
	}

	var cmd tea.Cmd
	if m.focus == focusKey {
		m.keyInput, cmd = m.keyInput.Update(msg)
	} else {
		m.valueInput, cmd = m.valueInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), msg.Type == tea.KeyEnter:
		m.setFocus(focusTable)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if err := m.ctrl.Table().SetFilter(m.filterInput.Value()); err != nil {
		m.status = Status{Level: LevelWarn, Text: "Invalid filter: " + err.Error()}
	} else {
		m.status = Status{}
	}
	m.syncRows()
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeNormal
		return m, m.run("clear all", func(ctx context.Context) error {
			// Already answered at the prompt
			return m.ctrl.ClearAll(ctx, func(string, string) bool { return true })
		})
	case "n", "N", "esc":
		m.mode = modeNormal
		m.status = Status{Level: LevelInfo, Text: "Remove all metadata cancelled."}
	}
	return m, nil
}

func (m *Model) handleSaveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.pathInput.Blur()
		m.status = Status{Level: LevelInfo, Text: "Save cancelled."}
		return m, nil
	case tea.KeyEnter:
		m.mode = modeNormal
		m.pathInput.Blur()
		dst := strings.TrimSpace(m.pathInput.Value())
		return m, m.run("save", func(ctx context.Context) error {
			return m.ctrl.Save(ctx, func(string) (string, bool) {
				return dst, dst != ""
			})
		})
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) addUpdate() tea.Cmd {
	form := m.form()
	return m.run("add/update", func(ctx context.Context) error {
		return m.ctrl.AddUpdate(ctx, form)
	})
}

func (m *Model) seedFromSelection() {
	e, ok := m.ctrl.Table().At(m.table.Cursor())
	if !ok {
		return
	}
	m.keyInput.SetValue(e.Key)
	m.valueInput.SetValue(e.Value)
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.table.Blur()
	m.keyInput.Blur()
	m.valueInput.Blur()
	m.filterInput.Blur()

	switch f {
	case focusTable:
		m.table.Focus()
	case focusKey:
		m.keyInput.Focus()
	case focusValue:
		m.valueInput.Focus()
	case focusFilter:
		m.filterInput.Focus()
	}
}

// syncRows copies the visible part of the controller's table into the view
func (m *Model) syncRows() {
	visible := m.ctrl.Table().Visible()
	rows := make([]table.Row, 0, len(visible))
	for _, e := range visible {
		rows = append(rows, table.Row{e.Key, e.Value})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	keyWidth := width / 3
	if keyWidth < 12 {
		keyWidth = 12
	}
	valueWidth := width - keyWidth - 8
	if valueWidth < 12 {
		valueWidth = 12
	}
	m.table.SetColumns([]table.Column{
		{Title: "Key", Width: keyWidth},
		{Title: "Value", Width: valueWidth},
	})
	m.syncRows()

	// Title, path, filter, form, status and help take the rest. The height
	// given to the table includes its header.
	tableHeight := height - 14
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)

	m.keyInput.Width = valueWidth
	m.valueInput.Width = valueWidth
}

func (m *Model) form() metadata.Form {
	return metadata.Form{Key: m.keyInput.Value(), Value: m.valueInput.Value()}
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("metamod"))
	b.WriteString("\n")
	b.WriteString(PathStyle.Render(m.ctrl.Session().Label()))
	b.WriteString("\n")
	b.WriteString(m.filterInput.View())
	b.WriteString("\n")
	b.WriteString(TableBorder.Render(m.table.View()))
	b.WriteString("\n")

	b.WriteString(m.label("Key", focusKey) + m.keyInput.View() + "\n")
	b.WriteString(m.label("Value/New Key", focusValue) + m.valueInput.View() + "\n\n")

	switch m.mode {
	case modeConfirmClear:
		b.WriteString(ConfirmStyle.Render(session.ConfirmClearMessage + " (y/n)"))
	case modeSavePath:
		b.WriteString(m.pathInput.View())
	default:
		b.WriteString(m.statusView())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return App.Render(b.String())
}

func (m *Model) label(text string, f focusArea) string {
	if m.focus == f {
		return FocusedLabelStyle.Render(text)
	}
	return LabelStyle.Render(text)
}

func (m *Model) statusView() string {
	switch m.status.Level {
	case LevelInfo:
		if m.busy {
			return StatusStyle.Render(m.status.Text)
		}
		return SuccessStyle.Render(m.status.Text)
	case LevelWarn:
		return WarningStyle.Render("Warning: " + m.status.Text)
	case LevelError:
		return ErrorStyle.Render(m.status.Text)
	}

	if !m.ctrl.Session().HasFile() {
		return StatusStyle.Render("Press q to quit. Start with: metamod tui <file>")
	}
	tbl := m.ctrl.Table()
	if tbl.Len() == tbl.Total() {
		return StatusStyle.Render(fmt.Sprintf("%d tags", tbl.Total()))
	}
	return StatusStyle.Render(fmt.Sprintf("%d of %d tags shown", tbl.Len(), tbl.Total()))
}
