package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/storm/internal/config"
	"github.com/1broseidon/storm/internal/ui"
)

func probeCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/storm/config.yaml)")
	plain := fs.Bool("plain", false, "Print without styling")
	if err := fs.Parse(args); err != nil {
		if isHelp(err) {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger, err := newLogger(stderr, res.Config.LogLevel, res.Config.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	uiCfg, err := uiConfig(res.Config, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	details, err := probe(res.Config, uiCfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *plain || !isTerminal(stdout) {
		fmt.Fprint(stdout, renderPlain(details))
	} else {
		fmt.Fprint(stdout, renderStyled(details))
	}
	return 0
}

// probe bootstraps the backend with a hidden window and reports what it
// found. Everything is released before returning.
func probe(cfg *config.Config, uiCfg ui.Config) ([]ui.Detail, error) {
	app, err := ui.NewApplication(uiCfg)
	if err != nil {
		return nil, err
	}
	defer app.Close()

	opts := cfg.WindowOptions()
	opts.Visible = false
	win, err := ui.NewWindow(app, cfg.Window.Title, uint32(cfg.Window.Width), uint32(cfg.Window.Height), opts)
	if err != nil {
		return nil, err
	}
	if err := app.SetWindow(win); err != nil {
		win.Close()
		return nil, err
	}

	details := []ui.Detail{{Key: "platform", Value: app.Platform()}}
	return append(details, win.Describe()...), nil
}

func renderPlain(details []ui.Detail) string {
	var b strings.Builder
	for _, d := range details {
		fmt.Fprintf(&b, "%s: %s\n", d.Key, d.Value)
	}
	return b.String()
}

func renderStyled(details []ui.Detail) string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("storm probe")

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(20).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	lines := []string{header, ""}
	for _, d := range details {
		lines = append(lines, labelStyle.Render(d.Key)+valueStyle.Render(d.Value))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n")) + "\n"
}
