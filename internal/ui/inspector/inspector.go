// Package inspector provides an interactive console for browsing and
// editing dvars.
package inspector

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/pubsub"
	"github.com/zjrosen/dvars/internal/service"
	"github.com/zjrosen/dvars/internal/ui/styles"
)

const (
	nameWidth  = 24
	typeWidth  = 12
	valueWidth = 28
	// Lines reserved for the input, the detail pane and the status bar.
	chromeHeight = 12
)

type row struct {
	name    string
	typ     dvar.Type
	value   string
	flags   string
	pending bool
}

// Model is the inspector state.
type Model struct {
	ctx      context.Context
	svc      *service.Service
	listener *pubsub.ContinuousListener[dvar.ChangeEvent]

	input    textinput.Model
	rows     []row
	selected int
	offset   int

	detailName string
	detail     string

	status    string
	statusErr bool

	wrap   int
	width  int
	height int
}

// New returns an inspector over svc. Registry events are consumed until
// ctx is cancelled.
func New(ctx context.Context, svc *service.Service, wrap int) Model {
	ti := textinput.New()
	ti.Prompt = "] "
	ti.Placeholder = "name [value]"
	ti.Focus()
	if wrap <= 0 {
		wrap = 72
	}

	m := Model{
		ctx:      ctx,
		svc:      svc,
		listener: pubsub.NewContinuousListener(ctx, svc.Registry().Events()),
		input:    ti,
		wrap:     wrap,
		height:   24,
	}
	m.refresh()
	return m
}

// Init starts the cursor and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listener.Listen())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.clampOffset()
		return m, nil

	case pubsub.Event[dvar.ChangeEvent]:
		m.refresh()
		if strings.EqualFold(msg.Payload.Name, m.detailName) {
			m.describe(m.detailName)
		}
		return m, m.listener.Listen()

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.selected > 0 {
				m.selected--
				m.clampOffset()
			}
			return m, nil
		case "down", "ctrl+n":
			if m.selected < len(m.rows)-1 {
				m.selected++
				m.clampOffset()
			}
			return m, nil
		case "tab":
			m.complete()
			return m, nil
		case "enter":
			m.submit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

func rowZoneID(i int) string {
	return fmt.Sprintf("dvar-row-%d", i)
}

// handleMouse selects the clicked row and scrolls with the wheel.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.selected > 0 {
			m.selected--
			m.clampOffset()
		}
	case tea.MouseButtonWheelDown:
		if m.selected < len(m.rows)-1 {
			m.selected++
			m.clampOffset()
		}
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionRelease {
			return
		}
		end := min(m.offset+m.listHeight(), len(m.rows))
		for i := m.offset; i < end; i++ {
			if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
				m.selected = i
				m.describe(m.rows[i].name)
				return
			}
		}
	}
}

// query splits the input into the name being typed and an optional value.
func (m Model) query() (name, value string, hasValue bool) {
	text := strings.TrimLeft(m.input.Value(), " ")
	name, value, hasValue = strings.Cut(text, " ")
	return name, strings.TrimSpace(value), hasValue
}

func (m *Model) refresh() {
	prefix, _, _ := m.query()
	prefix = strings.ToLower(prefix)

	prev := ""
	if m.selected < len(m.rows) {
		prev = m.rows[m.selected].name
	}

	rows := make([]row, 0, len(m.rows))
	m.svc.Registry().ForEach(func(v *dvar.Variable) {
		if !strings.HasPrefix(strings.ToLower(v.Name()), prefix) {
			return
		}
		rows = append(rows, row{
			name:    v.Name(),
			typ:     v.Type(),
			value:   v.DisplayableValue(),
			flags:   v.Flags().String(),
			pending: v.HasLatchedValue(),
		})
	})
	m.rows = rows

	m.selected = 0
	for i, r := range m.rows {
		if r.name == prev {
			m.selected = i
			break
		}
	}
	m.clampOffset()
}

func (m *Model) listHeight() int {
	return max(m.height-chromeHeight, 3)
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	m.offset = max(m.offset, 0)
}

// complete extends the typed name to the longest prefix shared by every
// match, adding a space once the name is unique.
func (m *Model) complete() {
	name, _, hasValue := m.query()
	if hasValue || len(m.rows) == 0 {
		return
	}
	if len(m.rows) == 1 {
		m.input.SetValue(m.rows[0].name + " ")
		m.input.CursorEnd()
		return
	}
	common := m.rows[0].name
	for _, r := range m.rows[1:] {
		common = commonPrefix(common, r.name)
	}
	if len(common) > len(name) {
		m.input.SetValue(common)
		m.input.CursorEnd()
	}
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !strings.EqualFold(a[i:i+1], b[i:i+1]) {
			return a[:i]
		}
	}
	return a[:n]
}

func (m *Model) submit() {
	name, value, hasValue := m.query()
	if name == "" {
		if m.selected < len(m.rows) {
			m.describe(m.rows[m.selected].name)
		}
		return
	}
	if !hasValue || value == "" {
		m.describe(name)
		return
	}

	v, err := m.svc.Set(m.ctx, name, unquote(value), dvar.SourceExternal)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	log.Debug(log.CatUI, "Set from inspector", "dvar", v.Name(), "value", v.DisplayableValue())
	if v.HasLatchedValue() {
		m.setStatus(fmt.Sprintf("%s will be %q after restart", v.Name(), v.DisplayableLatchedValue()), false)
	} else {
		m.setStatus(fmt.Sprintf("%s is %q", v.Name(), v.DisplayableValue()), false)
	}
	m.input.SetValue("")
	m.refresh()
	m.describe(v.Name())
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) describe(name string) {
	d, err := m.svc.Describe(m.ctx, name)
	if err != nil {
		m.detailName = ""
		m.detail = ""
		m.setStatus(err.Error(), true)
		return
	}
	m.detailName = d.Name

	var b strings.Builder
	b.WriteString(styles.SelectedStyle.Render(d.Name))
	b.WriteString(" ")
	b.WriteString(styles.MutedStyle.Render(d.Type + " " + d.Flags))
	b.WriteString("\n")
	if d.Help != "" {
		b.WriteString(styles.DescriptionStyle.Render(wordwrap.String(d.Help, m.wrap)))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "value %q  reset %q\n", d.Value, d.Reset)
	if d.Pending {
		b.WriteString(styles.PendingStyle.Render(fmt.Sprintf("latched %q", d.Latched)))
		b.WriteString("\n")
	}
	b.WriteString(styles.MutedStyle.Render(d.Domain))
	m.detail = b.String()
}

// Selected returns the name of the highlighted variable, or "".
func (m Model) Selected() string {
	if m.selected < len(m.rows) {
		return m.rows[m.selected].name
	}
	return ""
}

// Detail returns the plain description pane.
func (m Model) Detail() string { return m.detail }

// Status returns the last status message and whether it is an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// View renders the inspector.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.MutedStyle.Render("  no matching dvars"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.listHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(zone.Mark(rowZoneID(i), m.renderRow(i)))
		b.WriteString("\n")
	}

	if m.detail != "" {
		b.WriteString("\n")
		b.WriteString(styles.PanelStyle.Render(m.detail))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	return zone.Scan(b.String())
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	indicator := " "
	nameStyle := styles.NameStyle
	if i == m.selected {
		indicator = styles.SelectionIndicatorStyle.Render(">")
		nameStyle = styles.SelectedStyle
	}
	value := styles.TruncateString(r.value, valueWidth)
	if r.pending {
		value += styles.PendingStyle.Render("*")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		indicator,
		nameStyle.Render(styles.PadRight(styles.TruncateString(r.name, nameWidth), nameWidth+1)),
		styles.MutedStyle.Render(styles.PadRight(r.typ.String(), typeWidth)),
		styles.TypeStyle(r.typ).Render(styles.PadRight(value, valueWidth+2)),
		styles.MutedStyle.Render(r.flags),
	)
}

func (m Model) renderStatus() string {
	if m.status != "" {
		if m.statusErr {
			return styles.StatusErrorStyle.Render(m.status)
		}
		return styles.StatusSuccessStyle.Render(m.status)
	}
	return styles.StatusBarStyle.Render(fmt.Sprintf("%d/%d dvars  tab complete  enter set/describe  esc quit",
		len(m.rows), m.svc.Registry().Count()))
}
