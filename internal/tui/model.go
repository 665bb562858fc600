// Package tui is an interactive terminal viewer for a rendered tree.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/textview"
	"github.com/mcncl/jsontree/internal/tree"
)

// intersectMargin is how many rows beyond the window still count as
// visible when deciding which deferred nodes to reveal.
const intersectMargin = 2

const defaultHeight = 24

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)
	helpText = "↑↓/jk move  enter toggle  m more  e expand all  c collapse all  q quit"
)

// Model is the bubbletea model wrapping a tree.
type Model struct {
	title  string
	tree   *tree.Tree
	log    logging.Logger
	styles textview.Styles

	lines  []textview.Line
	cursor int
	offset int
	width  int
	height int
	status string
}

// New creates a viewer for t.
func New(title string, t *tree.Tree, logger logging.Logger) *Model {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Model{
		title:  title,
		tree:   t,
		log:    logger.WithComponent("tui"),
		styles: textview.NewStyles(lipgloss.DefaultRenderer()),
		height: defaultHeight,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()

	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.bodyHeight())
		case "pgdown":
			m.move(m.bodyHeight())
		case "g", "home":
			m.move(-len(m.lines))
		case "G", "end":
			m.move(len(m.lines))
		case "enter", " ":
			m.activate()
		case "m":
			m.loadMore()
		case "e":
			m.tree.ExpandAll()
			m.refresh()
		case "c":
			m.tree.CollapseAll()
			m.refresh()
		}
	}
	return m, nil
}

// activate acts on the line under the cursor: containers toggle, deferred
// placeholders materialize, "more items" lines load the rest.
func (m *Model) activate() {
	l, ok := m.current()
	if !ok || !l.Actionable() {
		return
	}
	var err error
	switch l.Kind {
	case textview.KindContainer:
		err = m.tree.Toggle(l.NodeID)
	case textview.KindPlaceholder:
		_, err = m.tree.Materialize(l.NodeID)
	case textview.KindLoadMore:
		_, err = m.tree.LoadMore(l.NodeID)
	}
	m.report(err)
	m.refresh()
}

// loadMore loads the first pending "more items" line at or below the cursor.
func (m *Model) loadMore() {
	for i := m.cursor; i < len(m.lines); i++ {
		if m.lines[i].Kind == textview.KindLoadMore {
			_, err := m.tree.LoadMore(m.lines[i].NodeID)
			m.report(err)
			m.refresh()
			return
		}
	}
	m.status = "no more items below the cursor"
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.log.Warn(context.Background(), err, "tree action failed")
	m.status = errors.UserFriendlyError(err)
}

func (m *Model) current() (textview.Line, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return textview.Line{}, false
	}
	return m.lines[m.cursor], true
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.refresh()
}

func (m *Model) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// refresh rebuilds the outline, keeps the cursor on screen and reveals
// deferred nodes that scrolled into view.
func (m *Model) refresh() {
	for {
		m.lines = textview.Lines(m.tree.Root())
		m.clamp()
		if m.intersect() == 0 {
			return
		}
	}
}

func (m *Model) clamp() {
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// intersect reports the placeholders near the window to the tree. Only
// virtualized trees have watchers, so this is a no-op otherwise.
func (m *Model) intersect() int {
	if m.tree.Observer().Len() == 0 {
		return 0
	}
	from := m.offset - intersectMargin
	if from < 0 {
		from = 0
	}
	to := m.offset + m.bodyHeight() + intersectMargin
	if to > len(m.lines) {
		to = len(m.lines)
	}
	var ids []string
	for _, l := range m.lines[from:to] {
		if l.Kind == textview.KindPlaceholder {
			ids = append(ids, l.NodeID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	n := m.tree.Intersect(ids...)
	if n > 0 {
		m.log.Debug(context.Background(), "revealed nodes in view", "count", n)
	}
	return n
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	stats := m.tree.Stats()
	header := fmt.Sprintf("%s  %d nodes", m.title, stats.NodeCount)
	if stats.Virtualized {
		header += " (virtualized)"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	end := m.offset + m.bodyHeight()
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for i := m.offset; i < end; i++ {
		line := m.styles.Format(m.lines[i])
		if i == m.cursor {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	status := m.status
	if status == "" {
		status = fmt.Sprintf("%d/%d  %s", m.cursor+1, len(m.lines), helpText)
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// Cursor returns the selected line index.
func (m *Model) Cursor() int { return m.cursor }

// Lines returns the outline as currently shown.
func (m *Model) Lines() []textview.Line { return m.lines }

// Status returns the status bar message, if any.
func (m *Model) Status() string { return m.status }

// Run starts the viewer on the alternate screen and blocks until it quits.
func Run(title string, t *tree.Tree, logger logging.Logger) error {
	p := tea.NewProgram(New(title, t, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.NewOutputError("terminal viewer failed", err)
	}
	return nil
}
