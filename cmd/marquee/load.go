package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// loadDoneMsg signals that the background load returned.
type loadDoneMsg struct{}

// loadModel shows a spinner while a repository operation runs.
type loadModel struct {
	ctx      context.Context
	label    string
	run      func(ctx context.Context)
	spinner  spinner.Model
	done     bool
	canceled bool
}

func newLoadModel(ctx context.Context, label string, run func(ctx context.Context)) loadModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return loadModel{
		ctx:     ctx,
		label:   label,
		run:     run,
		spinner: s,
	}
}

func (m loadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m loadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.canceled = true
			return m, tea.Quit
		}
	case loadDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" "+m.label+"...") + "\n"
}

func (m loadModel) start() tea.Cmd {
	return func() tea.Msg {
		m.run(m.ctx)
		return loadDoneMsg{}
	}
}

// runLoad runs fn behind a spinner and returns once it has finished.
func runLoad(ctx context.Context, label string, fn func(ctx context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newLoadModel(ctx, label, fn))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", label, err)
	}

	lm, ok := m.(loadModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if lm.canceled {
		return context.Canceled
	}
	return nil
}
