// cmd/leadradar/main.go
//
// This is the entry point for the leadradar CLI.
// With no subcommand it opens the interactive lead console; the list, show,
// sync, export and stats subcommands talk to the same backend headlessly.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/lead-radar/internal/config"
	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/logbook"
	"github.com/kingrea/lead-radar/internal/tui"
)

var (
	projectDir string
	baseURL    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cwd, _ := os.Getwd()

	root := &cobra.Command{
		Use:          "leadradar",
		Short:        "Triage and work startup-launch leads",
		SilenceUsage: true,
		Version:      gateway.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole()
		},
	}

	root.PersistentFlags().StringVar(&projectDir, "dir", cwd, "directory holding .leadradar/")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL (overrides config and LEADRADAR_BASE_URL)")

	root.AddCommand(consoleCmd())
	root.AddCommand(listCmd())
	root.AddCommand(showCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(statsCmd())
	return root
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the interactive lead console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole()
		},
	}
}

func runConsole() error {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitRadarDir(dir); err != nil {
		return fmt.Errorf("initialize %s: %w", config.RadarDir, err)
	}
	app, err := tui.NewApp(dir, tui.WithBaseURL(baseURL))
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

// session bundles what the headless commands need.
type session struct {
	cfg *config.Config
	gw  *gateway.Client
	log *logbook.Logbook
}

func openSession() (*session, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.OverrideBaseURL(baseURL); err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, gw: gateway.NewFromConfig(cfg)}
	if lb, err := logbook.New(cfg.LogPath()); err == nil {
		s.log = lb
	}
	return s, nil
}
