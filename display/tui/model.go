/*
 * model.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package tui shows a monitoring session in the terminal, with bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/session"
)

// Sender queues events for a session. session.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, ev session.Event) error
}

// patchMsg carries the patches of one session event.
type patchMsg []session.Patch

// errMsg reports an event that could not be sent.
type errMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cursorSty  = lipgloss.NewStyle().Reverse(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx      context.Context
	events   Sender
	running  bool
	dir      string
	files    []mdwatch.ReportFile
	selected string
	live     string
	prog     mdwatch.ProgressSnapshot
	duration mdwatch.SimulationSet
	last     mdwatch.DataPoint
	records  int
	sims     int
	cursor   int
	bar      progress.Model
	err      error
}

// NewModel returns a model that sends the user actions to events. sims is the
// number of simulations the session includes in the aggregate duration.
func NewModel(ctx context.Context, events Sender, sims int) Model {
	return Model{
		ctx:    ctx,
		events: events,
		sims:   sims,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) send(ev session.Event) tea.Cmd {
	return func() tea.Msg {
		if err := m.events.Send(m.ctx, ev); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) apply(ps []session.Patch) Model {
	for _, p := range ps {
		switch v := p.(type) {
		case session.ResetSeries:
			m.records = 0
			m.last = mdwatch.DataPoint{}
		case session.AppendSeries:
			if l, ok := v.Table.Last(); ok {
				m.last = l
				m.records += v.Table.Len()
			}
		case session.ProgressPatch:
			m.prog = v.Progress
		case session.DurationPatch:
			m.duration = v.Set
		case session.FilesPatch:
			m.dir, m.files, m.selected, m.live = v.Dir, v.Files, v.Selected, v.Live
			if m.cursor >= len(m.files) {
				m.cursor = max(len(m.files)-1, 0)
			}
		case session.Schedule:
			m.running = true
		case session.Cancel:
			m.running = false
		}
	}
	return m
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case patchMsg:
		m.err = nil
		return m.apply(msg), nil
	case errMsg:
		m.err = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "s":
			return m, m.send(session.Toggle{On: !m.running})
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.files)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.files) > 0 {
				return m, m.send(session.Select{Name: m.files[m.cursor].Name})
			}
		case "+", "=":
			m.sims++
			return m, m.send(session.SetSimulations{N: m.sims})
		case "-":
			if m.sims > 1 {
				m.sims--
				return m, m.send(session.SetSimulations{N: m.sims})
			}
		}
	}
	return m, nil
}

func value(v float64, format string) string {
	if mdwatch.IsMissing(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	state := labelStyle.Render("stopped")
	if m.running {
		state = okStyle.Render("running")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n", titleStyle.Render("mdwatch"), m.dir, state)
	P := m.prog
	if P.HasSteps {
		fmt.Fprintf(&b, "%s %s  %s / %s steps\n", m.bar.ViewAs(P.Percent/100), fmt.Sprintf("%.1f%%", P.Percent),
			humanize.Comma(int64(P.Completed)), humanize.Comma(int64(P.Total)))
	}
	if P.HasSpeed || P.HasETA {
		fmt.Fprintf(&b, "%s %.2f ns/day  %s %s\n", labelStyle.Render("speed"), P.NsPerDay, labelStyle.Render("eta"), P.ETA)
	}
	if !P.Updated.IsZero() {
		age := "updated " + P.Age
		if P.Stale {
			age = staleStyle.Render(age + " (not running?)")
		}
		fmt.Fprintf(&b, "%s\n", age)
	}
	if m.records > 0 {
		L := m.last
		fmt.Fprintf(&b, "\n%s %d records, last step %d\n", labelStyle.Render(m.selected), m.records, L.Step)
		fmt.Fprintf(&b, "  time %s ps  temp %s K  press %s  etot %s  density %s\n",
			value(L.Time, "%.3f"), value(L.Temperature, "%.2f"), value(L.Pressure, "%.1f"),
			value(L.Etot, "%.4f"), value(L.Density, "%.4f"))
	}
	if len(m.duration) > 0 {
		fmt.Fprintf(&b, "\n%s %.3f ns in the last %d simulations\n", labelStyle.Render("simulated"), m.duration.Total(), m.sims)
		fr := m.duration.Fractions()
		for i, v := range m.duration {
			fmt.Fprintf(&b, "  %-20s %8.3f ns %5.1f%%\n", v.Name, v.Ns, 100*fr[i])
		}
	}
	if len(m.files) > 0 {
		b.WriteString("\n")
		for i, v := range m.files {
			mark := " "
			if v.Name == m.live {
				mark = okStyle.Render("●")
			}
			sel := " "
			if v.Name == m.selected {
				sel = ">"
			}
			line := fmt.Sprintf("%s%s %-20s %-12s %s", sel, mark, v.Name, v.Mode, humanize.Time(v.ModTime))
			if i == m.cursor {
				line = cursorSty.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", staleStyle.Render(m.err.Error()))
	}
	b.WriteString("\n" + helpStyle.Render("space: start/stop  ↑/↓ enter: plot file  +/-: simulations  q: quit") + "\n")
	return b.String()
}
