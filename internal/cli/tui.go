package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/pipeline"
	"github.com/matzehuels/stochfold/pkg/sampling"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowserModel - Interactive non-redundant sample browser
// =============================================================================

// drawer is the part of a sampling.Session the browser needs.
type drawer interface {
	Next() (sampling.Draw, bool, error)
	Coverage() float64
	Exhausted() bool
}

// drawnMsg carries a batch of structures drawn in the background.
type drawnMsg struct {
	samples []sampling.Draw
	err     error
}

// BrowserModel is the bubbletea model for browsing non-redundant samples.
// Pressing "n" draws another batch from the same session, so the list
// never repeats a structure.
type BrowserModel struct {
	Sequence string
	Samples  []sampling.Draw
	Cursor   int
	Height   int
	Offset   int

	session  drawer
	batch    int
	kT       float64
	drawing  bool
	coverage float64
	err      error
}

// NewBrowserModel creates a browser that draws batch structures at a time.
func NewBrowserModel(seq string, sess drawer, batch int, kT float64) BrowserModel {
	return BrowserModel{
		Sequence: seq,
		Height:   15,
		session:  sess,
		batch:    batch,
		kT:       kT,
	}
}

func (m BrowserModel) Init() tea.Cmd {
	return m.draw()
}

// draw returns a command drawing the next batch. Only one draw runs at a
// time since sessions are not safe for concurrent use.
func (m BrowserModel) draw() tea.Cmd {
	sess, batch := m.session, m.batch
	return func() tea.Msg {
		var msg drawnMsg
		for range batch {
			s, ok, err := sess.Next()
			if err != nil {
				msg.err = err
				break
			}
			if !ok {
				break
			}
			msg.samples = append(msg.samples, s)
		}
		return msg
	}
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drawnMsg:
		m.drawing = false
		m.Samples = append(m.Samples, msg.samples...)
		m.coverage = m.session.Coverage()
		m.err = msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Samples)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "n":
			if m.drawing || m.session.Exhausted() || m.err != nil {
				return m, nil
			}
			m.drawing = true
			return m, m.draw()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m BrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Non-redundant samples"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  n draw more  q quit"))
	b.WriteString("\n\n")
	b.WriteString("  " + StyleValue.Render(m.Sequence))
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.Samples))
	for i := m.Offset; i < end; i++ {
		s := m.Samples[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%s %7.2f  %.4f", cursor, s.Structure, -m.kT*math.Log(s.Weight), s.Probability)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("  [%d/%d]  coverage %.4f", min(m.Cursor+1, len(m.Samples)), len(m.Samples), m.coverage)
	switch {
	case m.err != nil:
		status += "  " + StyleWarning.Render(errors.UserMessage(m.err))
	case m.drawing:
		status += "  drawing..."
	case m.session.Exhausted():
		status += "  exhausted"
	}
	b.WriteString(listDimStyle.Render(status))
	return b.String()
}

// runBrowser folds the input and opens the interactive browser.
func (c *CLI) runBrowser(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	ens, err := runner.Fold(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Folded %d nt", ens.Len()))

	sess, err := sampling.NewSession(ens, opts.SamplingOptions(0)...)
	if err != nil {
		return err
	}
	model := NewBrowserModel(ens.Sequences()[0], sess, opts.Count, ens.KT())
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
