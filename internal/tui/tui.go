// Package tui is a full-screen confirmation gate: the diff is shown in a
// scrollable viewport and a single key approves or rejects it.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jensroland/multiedit/internal/confirm"
	"github.com/jensroland/multiedit/internal/format"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

const (
	headerHeight = 2
	footerHeight = 1
)

// --- Model ---
type Model struct {
	preview  confirm.Preview
	viewport viewport.Model
	ready    bool
	decided  bool
	decision confirm.Decision
}

func New(p confirm.Preview) Model {
	return Model{preview: p, decision: confirm.Rejected}
}

// Decision returns the user's answer; Rejected until one is given.
func (m Model) Decision() confirm.Decision { return m.decision }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.decided, m.decision = true, confirm.Approved
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.decided, m.decision = true, confirm.Rejected
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(colorize(m.preview.Diff))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading preview..."
	}
	header := headerStyle.Render(m.preview.Path) + "  " + m.preview.Summary
	footer := faintStyle.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll  y apply  n/q reject", m.viewport.ScrollPercent()*100))
	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

func colorize(diff string) string {
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, kind := range format.ClassifyUnified(lines) {
		switch kind {
		case format.HeaderLine:
			lines[i] = headerStyle.Render(lines[i])
		case format.HunkLine:
			lines[i] = hunkStyle.Render(lines[i])
		case format.AddedLine:
			lines[i] = addedStyle.Render(lines[i])
		case format.RemovedLine:
			lines[i] = removedStyle.Render(lines[i])
		case format.NoteLine:
			lines[i] = faintStyle.Render(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

// Gate runs the model as a bubbletea program for every confirmation.
// In and Out default to the terminal when nil.
type Gate struct {
	In  io.Reader
	Out io.Writer
}

func (g Gate) Confirm(ctx context.Context, p confirm.Preview) (confirm.Decision, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if g.In != nil {
		opts = append(opts, tea.WithInput(g.In))
	}
	if g.Out != nil {
		opts = append(opts, tea.WithOutput(g.Out))
	}

	final, err := tea.NewProgram(New(p), opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return confirm.Rejected, ctxErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return confirm.Rejected, fmt.Errorf("running confirmation ui: %w", err)
	}
	m, ok := final.(Model)
	if !ok || !m.decided {
		return confirm.Rejected, nil
	}
	return m.decision, nil
}
