package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/sampling"
	"github.com/matzehuels/stochfold/pkg/structure"
)

// fakeDrawer yields the given structures once each.
type fakeDrawer struct {
	pending []string
	drawn   int
	err     error
}

func (f *fakeDrawer) Next() (sampling.Draw, bool, error) {
	if f.drawn == len(f.pending) {
		return sampling.Draw{}, false, f.err
	}
	s, _ := structure.Parse(f.pending[f.drawn])
	f.drawn++
	return sampling.Draw{Structure: s, Weight: 1, Probability: 0.25}, true, nil
}

func (f *fakeDrawer) Coverage() float64 { return float64(f.drawn) / float64(len(f.pending)) }
func (f *fakeDrawer) Exhausted() bool   { return f.drawn == len(f.pending) && f.err == nil }

func applyCmd(m BrowserModel, cmd tea.Cmd) BrowserModel {
	next, _ := m.Update(cmd())
	return next.(BrowserModel)
}

func TestBrowserDrawsBatches(t *testing.T) {
	d := &fakeDrawer{pending: []string{"((...))", "(.....)", ".......", ".(...)."}}
	m := NewBrowserModel("GGAAACC", d, 2, 0.6)

	m = applyCmd(m, m.Init())
	if len(m.Samples) != 2 {
		t.Fatalf("after Init got %d samples, want 2", len(m.Samples))
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = next.(BrowserModel)
	if !m.drawing || cmd == nil {
		t.Fatal("n should start a draw")
	}
	m = applyCmd(m, cmd)
	if len(m.Samples) != 4 || m.coverage != 1 {
		t.Errorf("got %d samples, coverage %g", len(m.Samples), m.coverage)
	}

	// Exhausted sessions ignore further draws.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}); cmd != nil {
		t.Error("exhausted browser should not draw")
	}
	if !strings.Contains(m.View(), "exhausted") {
		t.Error("view should report exhaustion")
	}
}

func TestBrowserNavigation(t *testing.T) {
	d := &fakeDrawer{pending: []string{"((...))", "(.....)", "......."}}
	m := NewBrowserModel("GGAAACC", d, 3, 0.6)
	m = applyCmd(m, m.Init())
	m.Height = 2

	down := tea.KeyMsg{Type: tea.KeyDown}
	for range 5 {
		next, _ := m.Update(down)
		m = next.(BrowserModel)
	}
	if m.Cursor != 2 || m.Offset != 1 {
		t.Errorf("Cursor = %d, Offset = %d; want 2, 1", m.Cursor, m.Offset)
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if next.(BrowserModel).Cursor != 1 {
		t.Error("up should move the cursor")
	}
}

func TestBrowserShowsError(t *testing.T) {
	d := &fakeDrawer{err: errors.New(errors.ErrCodeResource, "tracker node budget exhausted")}
	m := NewBrowserModel("GGAAACC", d, 2, 0.6)
	m = applyCmd(m, m.Init())
	if m.err == nil || !strings.Contains(m.View(), "budget") {
		t.Errorf("view should show the session error: %q", m.View())
	}
}
