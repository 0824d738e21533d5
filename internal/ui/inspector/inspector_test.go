package inspector

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dvars/internal/config"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/pubsub"
	"github.com/zjrosen/dvars/internal/service"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	reg := dvar.New(dvar.WithCapacity(64), dvar.WithDiagnostics(func(dvar.Diagnostic) {}))
	cfg := config.Defaults()
	cfg.ArchiveFile = ""
	svc := service.New(reg, cfg)
	_, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newModel(t *testing.T) Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, newService(t), 40)
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func TestNew_ListsEveryVariable(t *testing.T) {
	m := newModel(t)
	require.Len(t, m.rows, m.svc.Registry().Count())
	require.Equal(t, "cg_crosshairColor", m.Selected())
}

func TestUpdate_FiltersByPrefix(t *testing.T) {
	m := typeText(newModel(t), "R_")
	for _, r := range m.rows {
		require.Regexp(t, "^r_", r.name)
	}
	require.Len(t, m.rows, 7)
}

func TestUpdate_Navigation(t *testing.T) {
	m := typeText(newModel(t), "cg_")
	require.Equal(t, "cg_crosshairColor", m.Selected())

	m = press(m, tea.KeyDown)
	require.Equal(t, "cg_fov", m.Selected())
	m = press(m, tea.KeyDown)
	require.Equal(t, "cg_fov", m.Selected(), "stays on last row")
	m = press(m, tea.KeyUp)
	m = press(m, tea.KeyUp)
	require.Equal(t, "cg_crosshairColor", m.Selected())
}

func TestUpdate_TabCompletes(t *testing.T) {
	m := typeText(newModel(t), "r_s")
	m = press(m, tea.KeyTab)
	require.Equal(t, "r_sun", m.input.Value())

	m = typeText(m, "D")
	m = press(m, tea.KeyTab)
	require.Equal(t, "r_sunDirection ", m.input.Value())
}

func TestUpdate_EnterSets(t *testing.T) {
	m := typeText(newModel(t), "cg_fov 95")
	m = press(m, tea.KeyEnter)

	v := m.svc.Registry().Find("cg_fov")
	require.Equal(t, float32(95), v.Float())
	status, isErr := m.Status()
	require.False(t, isErr)
	require.Equal(t, `cg_fov is "95"`, status)
	require.Empty(t, m.input.Value())
	require.Contains(t, m.Detail(), "Domain is any number from 65 to 120")
}

func TestUpdate_EnterLatched(t *testing.T) {
	m := typeText(newModel(t), `r_mode "fullscreen"`)
	m = press(m, tea.KeyEnter)

	status, _ := m.Status()
	require.Equal(t, `r_mode will be "fullscreen" after restart`, status)
	require.Contains(t, m.Detail(), `latched "fullscreen"`)
}

func TestUpdate_EnterDescribes(t *testing.T) {
	m := newModel(t)
	m = press(m, tea.KeyEnter)
	require.Contains(t, m.Detail(), "cg_crosshairColor")

	m = typeText(m, "nope")
	m = press(m, tea.KeyEnter)
	status, isErr := m.Status()
	require.True(t, isErr)
	require.Contains(t, status, "nope")
	require.Empty(t, m.Detail())
}

func TestUpdate_InvalidNameReportsError(t *testing.T) {
	m := typeText(newModel(t), "bad-name 1")
	m = press(m, tea.KeyEnter)
	_, isErr := m.Status()
	require.True(t, isErr)
}

func TestUpdate_RegistryEventRefreshes(t *testing.T) {
	m := newModel(t)
	m = press(m, tea.KeyEnter)
	m.svc.Registry().Find("cg_crosshairColor").SetFromString("1 0 0 1", dvar.SourceInternal)

	next, cmd := m.Update(nextEvent(t, m))
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Equal(t, "1 0 0 1", m.rows[0].value)
	require.Contains(t, m.Detail(), `value "1 0 0 1"`)
}

// nextEvent waits for the next registry event delivered to m.
func nextEvent(t *testing.T, m Model) tea.Msg {
	t.Helper()
	msg := m.listener.Listen()()
	require.IsType(t, pubsub.Event[dvar.ChangeEvent]{}, msg)
	return msg
}

func TestProgram_SetAndQuit(t *testing.T) {
	m := newModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(ansi.Strip(string(b)), "com_maxfps")
	}, teatest.WithDuration(3*time.Second))

	tm.Type("com_maxfps 144")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(ansi.Strip(string(b)), `com_maxfps is "144"`)
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Equal(t, int32(144), final.svc.Registry().Find("com_maxfps").Int())
}

func TestView_RendersRowsAndStatus(t *testing.T) {
	m := typeText(newModel(t), "cg_")
	view := ansi.Strip(m.View())
	require.Contains(t, view, ">cg_crosshairColor")
	require.Contains(t, view, "cg_fov")
	require.NotContains(t, view, "r_gamma")
	require.Contains(t, view, "2/")
}

func TestUpdate_MouseWheelMovesSelection(t *testing.T) {
	m := typeText(newModel(t), "cg_")
	next, _ := m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m = next.(Model)
	require.Equal(t, "cg_fov", m.Selected())
	next, _ = m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	require.Equal(t, "cg_crosshairColor", next.(Model).Selected())
}
