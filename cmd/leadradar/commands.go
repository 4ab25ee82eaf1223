package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kingrea/lead-radar/internal/console"
	"github.com/kingrea/lead-radar/internal/export"
	"github.com/kingrea/lead-radar/internal/gateway"
	"github.com/kingrea/lead-radar/internal/lead"
	"github.com/kingrea/lead-radar/internal/stats"
)

// filterFlags are shared by list, export and stats.
type filterFlags struct {
	status   string
	source   string
	minScore int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "filter by status (new, contacted, replied, rejected)")
	cmd.Flags().StringVar(&f.source, "source", "all", "filter by source (producthunt, indiehackers, github, reddit, all)")
	cmd.Flags().IntVar(&f.minScore, "min-score", -1, "only leads scoring at least this much")
}

func (f *filterFlags) criteria() (lead.Criteria, error) {
	criteria := lead.AllCriteria()
	if strings.TrimSpace(f.status) != "" && f.status != "all" {
		status, err := lead.ParseStatus(f.status)
		if err != nil {
			return criteria, err
		}
		criteria = criteria.WithStatus(status)
	}
	source, err := lead.ParseSource(f.source)
	if err != nil {
		return criteria, err
	}
	criteria = criteria.WithSource(source)
	if f.minScore >= 0 {
		score := f.minScore
		criteria = criteria.WithMinScore(&score)
	}
	return criteria, criteria.Validate()
}

func listCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print leads matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			leads, err := s.gw.ListLeads(cmd.Context(), criteria)
			if err != nil {
				s.log.Error("List leads (%s) failed: %v", criteria, err)
				return err
			}
			printLeads(cmd.OutOrStdout(), leads)
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func printLeads(w io.Writer, leads []lead.Lead) {
	if len(leads) == 0 {
		fmt.Fprintln(w, "No leads.")
		return
	}
	fmt.Fprintf(w, "%-24s %-3s %5s  %-9s %-28s %s\n", "ID", "SRC", "SCORE", "STATUS", "PRODUCT", "LAUNCHED")
	for _, l := range leads {
		launched := "-"
		if t := l.Launched(); !t.IsZero() {
			launched = humanize.Time(t)
		}
		fmt.Fprintf(w, "%-24s %-3s %5d  %-9s %-28s %s\n",
			ansi.Truncate(l.ID, 24, "…"), l.Source.Label(), l.Score, l.Status,
			ansi.Truncate(l.ProductName, 28, "…"), launched)
	}
	fmt.Fprintf(w, "%d leads\n", len(leads))
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one lead with its score breakdown, duplicates and emails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			leads, err := s.gw.ListLeads(ctx, lead.AllCriteria())
			if err != nil {
				return err
			}
			var found *lead.Lead
			for i := range leads {
				if leads[i].ID == id {
					found = &leads[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("lead %s not found", id)
			}
			enrichment, err := gateway.Enrich(ctx, s.gw, id)
			if err != nil {
				return err
			}
			printEnrichment(cmd.OutOrStdout(), *found, enrichment)
			return nil
		},
	}
}

func printEnrichment(w io.Writer, l lead.Lead, e gateway.Enrichment) {
	fmt.Fprintf(w, "%s (%s) · score %d · %s\n", l.ProductName, l.Source.Title(), l.Score, l.Status)
	if l.Tagline != "" {
		fmt.Fprintln(w, l.Tagline)
	}
	for _, link := range l.Links() {
		fmt.Fprintf(w, "  %-12s %s\n", link.Label, link.URL)
	}
	if notes := l.NotesText(); notes != "" {
		fmt.Fprintf(w, "  %-12s %s\n", "Notes", notes)
	}

	fmt.Fprintln(w, "\nScore breakdown:")
	if e.BreakdownErr != nil {
		fmt.Fprintln(w, "  unavailable")
	} else {
		for _, f := range e.Breakdown.Factors {
			fmt.Fprintf(w, "  %-20s +%-3d %s\n", f.Name, f.Points, f.Reason)
		}
		fmt.Fprintf(w, "  %-20s  %d\n", "total", e.Breakdown.Total)
	}

	fmt.Fprintln(w, "\nDuplicates:")
	switch {
	case e.DuplicatesErr != nil:
		fmt.Fprintln(w, "  unavailable")
	case !e.Duplicates.IsDuplicate || len(e.Duplicates.Duplicates) == 0:
		fmt.Fprintln(w, "  none")
	default:
		for _, d := range e.Duplicates.Duplicates {
			fmt.Fprintf(w, "  %s (%s, score %d)\n", d.ProductName, d.Source.Title(), d.Score)
		}
	}

	fmt.Fprintln(w, "\nPossible emails:")
	switch {
	case e.EmailsErr != nil:
		fmt.Fprintln(w, "  unavailable")
	case len(e.Emails) == 0:
		fmt.Fprintln(w, "  none")
	default:
		for _, email := range e.Emails {
			fmt.Fprintf(w, "  %s\n", email)
		}
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [source]",
		Short: "Ask the backend to sync a source (default all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			source, err := lead.ParseSource(raw)
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.gw.TriggerSync(cmd.Context(), source); err != nil {
				s.log.Error("Sync %s failed: %v", source, err)
				return err
			}
			s.log.Info("Sync %s accepted", source)
			fmt.Fprintf(cmd.OutOrStdout(), "Sync of %s started.\n", source.Title())
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write leads matching the filters as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			c := console.New(s.gw, console.WithContext(cmd.Context()), console.WithLogger(s.log), console.WithCriteria(criteria))
			if err := loadNow(c); err != nil {
				return err
			}
			if output == "-" {
				return c.ExportCSV(cmd.OutOrStdout())
			}
			if output == "" {
				output = filepath.Join(s.cfg.ExportsDir(), export.DefaultFileName)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := c.ExportCSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			s.log.Info("Exported %d leads to %s", len(c.Visible()), output)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(c.Visible()), output)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default .leadradar/exports/leads_export.csv)")
	return cmd
}

// loadNow runs one console Load synchronously.
func loadNow(c *console.Console) error {
	c.Update(c.Load()())
	if err := c.Err(); err != nil {
		return err
	}
	return nil
}

func statsCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print pipeline statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			leads, err := s.gw.ListLeads(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats.Compute(leads))
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func printStats(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Leads        %s (avg score %d, %d high score)\n", humanize.Comma(int64(s.Total)), s.AvgScore, s.HighScore)
	for _, status := range lead.Statuses {
		fmt.Fprintf(w, "  %-10s %5d  %5.1f%%\n", status, s.Count(status), s.Share(status))
	}
	fmt.Fprintf(w, "Conversion   %5.1f%%\n", s.ConversionRate)
	fmt.Fprintf(w, "Response     %5.1f%%\n", s.ResponseRate)
	fmt.Fprintf(w, "Quality      %5.1f%%\n", s.QualityRate)
	fmt.Fprintf(w, "Pipeline     %5.1f%%\n", s.PipelineHealth)
	if len(s.Sources) > 0 {
		fmt.Fprintln(w, "Sources")
		for _, src := range s.Sources {
			fmt.Fprintf(w, "  %-14s %5d leads  avg %3d  %d replies\n", src.Source.Title(), src.Leads, src.AvgScore, src.Replies)
		}
	}
	fmt.Fprintf(w, "To contact   %d\nFollow-ups   %d\nTo review    %d\n", s.ToContact, s.FollowUps, s.ToReview)
}
