package tui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rmera/mdwatch/session"
)

// teaProgram abstracts tea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Sink hands the patches of a session to a bubbletea program.
type Sink struct {
	p teaProgram
}

// Apply implements session.Sink.
func (S *Sink) Apply(patches []session.Patch) {
	if S.p != nil {
		S.p.Send(patchMsg(patches))
	}
}

// ErrNoTerminal is returned by Run when the standard output is not a terminal.
var ErrNoTerminal = errors.New("the standard output is not a terminal")

// Run shows the session S in the terminal until the user quits or ctx is done.
// If start is true, the monitoring is started right away.
func Run(ctx context.Context, S *session.Session, start bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNoTerminal
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sink := &Sink{}
	disp := session.NewDispatcher(S, sink)
	m := NewModel(ctx, disp, S.Simulations()).apply(S.Init())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.p = p
	go disp.Run(ctx)
	if start {
		go disp.Send(ctx, session.Toggle{On: true})
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
