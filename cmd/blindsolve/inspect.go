package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/rook/blindsolver/internal/tui"
)

// InspectCmd runs the terminal decision inspector, dialing a running
// serve command's /inspect websocket and rendering each decision as a
// scrolling log with a snapshot sidebar and a detail pane.
type InspectCmd struct {
	Addr      string `kong:"default='ws://127.0.0.1:7778/inspect',help='Inspector websocket address'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	TrueColor bool   `kong:"help='Force a true-color profile (useful over SSH/tmux that misreport their terminal)'"`
}

func (c *InspectCmd) Run() error {
	level := log.InfoLevel
	if c.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})
	if c.TrueColor {
		logger.SetColorProfile(termenv.TrueColor)
	}

	model, err := tui.NewInspectorModel(c.Addr, logger)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
