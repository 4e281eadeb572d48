// Package tui is the terminal collection browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/Sternrassler/artic-select/pkg/selection"
	"github.com/Sternrassler/artic-select/pkg/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds browser settings.
type Config struct {
	PageSize     int
	FetchTimeout time.Duration
}

// DefaultConfig returns the standard browser settings.
func DefaultConfig() Config {
	return Config{
		PageSize:     session.DefaultPageSize,
		FetchTimeout: 15 * time.Second,
	}
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	fetcher pagination.PageFetcher[client.Artwork]
	config  Config
	logger  zerolog.Logger

	session *session.Session
	table   table.Model
	input   textinput.Model
	help    help.Model
	keys    KeyMap

	bulkMode bool
	status   string
}

type pageMsg struct {
	req  pagination.Request
	page pagination.Page[client.Artwork]
	err  error
}

// New creates a browser over fetcher. ctx bounds every page fetch.
func New(ctx context.Context, fetcher pagination.PageFetcher[client.Artwork], cfg Config, logger zerolog.Logger) *Model {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}

	sess := session.New(uuid.NewString(), cfg.PageSize, logger)
	cfg.PageSize = sess.PageSize()

	input := textinput.New()
	input.Prompt = "Select first: "
	input.Placeholder = "number of rows"
	input.CharLimit = 9

	t := table.New(
		table.WithColumns(columns(false)),
		table.WithFocused(true),
		table.WithHeight(cfg.PageSize),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Bold(true)
	t.SetStyles(styles)

	return &Model{
		ctx:     ctx,
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With().Str("component", "tui").Logger(),
		session: sess,
		table:   t,
		input:   input,
		help:    help.New(),
		keys:    DefaultKeyMap(),
	}
}

// Session exposes the browsing state.
func (m *Model) Session() *session.Session { return m.session }

// Init loads the first page.
func (m *Model) Init() tea.Cmd {
	return m.load(m.session.RequestPage(1))
}

// load fetches req off the event loop.
func (m *Model) load(req pagination.Request) tea.Cmd {
	ctx, fetcher, timeout := m.ctx, m.fetcher, m.config.FetchTimeout
	return func() tea.Msg {
		page, err := pagination.Load(ctx, fetcher, req, timeout)
		return pageMsg{req: req, page: page, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case pageMsg:
		m.deliver(msg)
		return m, nil
	case tea.KeyMsg:
		if m.bulkMode {
			return m.updateBulk(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, m.keys.Toggle):
		if _, err := m.session.ToggleAt(m.table.Cursor()); err != nil {
			m.status = "nothing to toggle"
			return m, nil
		}
		m.status = ""
		m.refresh()
	case key.Matches(msg, m.keys.TogglePage):
		if len(m.session.Current().Records) == 0 {
			return m, nil
		}
		if m.session.TogglePage() {
			m.status = "page selected"
		} else {
			m.status = "page deselected"
		}
		m.refresh()
	case key.Matches(msg, m.keys.PrevPage):
		if m.session.Page() <= 1 {
			return m, nil
		}
		return m, m.load(m.session.PrevPage())
	case key.Matches(msg, m.keys.NextPage):
		if last := m.session.TotalPages(); last > 0 && m.session.Page() >= last {
			return m, nil
		}
		return m, m.load(m.session.NextPage())
	case key.Matches(msg, m.keys.Bulk):
		m.bulkMode = true
		m.status = ""
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.ClearBulk):
		m.session.ClearBulk()
		m.status = "bulk selection cleared"
		m.refresh()
	}
	return m, nil
}

func (m *Model) updateBulk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.closeBulk()
		return m, nil
	case key.Matches(msg, m.keys.Apply):
		n, err := m.session.ApplyBulkInput(m.input.Value())
		if err != nil {
			if errors.Is(err, selection.ErrInvalidBulkInput) {
				m.status = "enter a whole number greater than zero"
			} else {
				m.status = "error: " + err.Error()
			}
			return m, nil
		}
		m.closeBulk()
		m.status = fmt.Sprintf("selected first %d rows", n)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeBulk() {
	m.bulkMode = false
	m.input.Reset()
	m.input.Blur()
}

// deliver hands a fetch result to the session. Results for pages the user
// has already navigated away from are dropped.
func (m *Model) deliver(msg pageMsg) {
	err := m.session.Deliver(msg.req, msg.page, msg.err)
	if errors.Is(err, pagination.ErrStaleResponse) {
		return
	}
	m.refresh()
	if len(m.session.Current().Records) > 0 {
		m.table.SetCursor(0)
	}
}

// refresh rebuilds the table from the session.
func (m *Model) refresh() {
	m.table.SetColumns(columns(m.session.AllChecked()))
	m.table.SetRows(tableRows(m.session.Rows()))
}
