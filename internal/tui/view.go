package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/lead-radar/internal/console"
	"github.com/kingrea/lead-radar/internal/lead"
	"github.com/kingrea/lead-radar/internal/logbook"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	panelTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	logStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#2D3748")).Bold(true)
	scoreHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	scoreMid      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	scoreLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	chipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Background(lipgloss.Color("#333333")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

var statusStyles = map[lead.Status]lipgloss.Style{
	lead.StatusNew:       lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	lead.StatusContacted: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")),
	lead.StatusReplied:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	lead.StatusRejected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
}

func scoreStyle(score, threshold int) lipgloss.Style {
	switch {
	case score >= threshold:
		return scoreHigh
	case score >= 40:
		return scoreMid
	}
	return scoreLow
}

// View renders the whole console.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 110
	}
	inner := max(40, width-4)

	sections := []string{
		headerStyle.Render("◎ LEAD RADAR") + "  " + mutedStyle.Render(a.gatewayLabel),
		a.renderToolbar(inner),
		panelStyle.Width(inner).Render(a.renderTable(inner - 2)),
	}
	if id := a.console.Expanded(); id != "" {
		if l, ok := a.console.Lead(id); ok {
			sections = append(sections, panelStyle.Width(inner).Render(a.renderDetails(l, inner-2)))
		}
	}
	if ranking := a.renderRanking(inner - 2); ranking != "" {
		sections = append(sections, panelStyle.Width(inner).Render(ranking))
	}
	if a.mode == modeNotes {
		sections = append(sections, panelStyle.Width(inner).Render(
			panelTitle.Render("NOTES")+"\n"+a.notes.View()+"\n"+mutedStyle.Render("enter save · esc cancel")))
	}
	if logPanel := a.renderLogPanel(inner); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderToolbar(width int) string {
	criteria := a.console.Criteria()
	status := "all"
	if criteria.Status != "" {
		status = string(criteria.Status)
	}
	source := criteria.Source
	if source == "" {
		source = lead.SourceAll
	}
	minScore := "any"
	if criteria.MinScore != nil {
		minScore = fmt.Sprintf("≥%d", *criteria.MinScore)
	}
	chips := []string{
		chipStyle.Render("source " + source.Title()),
		chipStyle.Render("status " + status),
		chipStyle.Render("score " + minScore),
		chipStyle.Render("sort " + a.sort.String()),
		chipStyle.Render("channel " + string(a.console.Channel())),
	}
	if n := a.console.Selection().Len(); n > 0 {
		chips = append(chips, selectedStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	state := a.console.State()
	if state == console.StateLoading || state == console.StateSyncing || a.aiBusy() {
		chips = append(chips, a.spinner.View()+" "+mutedStyle.Render(a.busyLabel()))
	}
	return ansi.Truncate(strings.Join(chips, " "), width, "…")
}

func (a *App) busyLabel() string {
	switch a.console.State() {
	case console.StateSyncing:
		return "syncing " + a.console.Syncing().Title()
	case console.StateLoading:
		return "loading"
	}
	ai := a.console.AI()
	return fmt.Sprintf("%s %s", ai.Kind, ai.LeadID)
}

func (a *App) aiBusy() bool {
	return a.console.AI().Phase == console.AIPending
}

func (a *App) renderTable(width int) string {
	rows := a.rows()
	if len(rows) == 0 {
		switch state := a.console.State(); {
		case state == console.StateLoading:
			return mutedStyle.Render("Loading leads...")
		case a.console.Err() != nil:
			return errorStyle.Render("Failed to fetch leads. Press r to retry.")
		case state == console.StateIdle:
			return mutedStyle.Render("Loading leads...")
		}
		return mutedStyle.Render(fmt.Sprintf("No leads match %s.", a.console.Criteria()))
	}

	start, end := a.window(len(rows))
	lines := make([]string, 0, end-start+1)
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("   %-3s %-3s %5s  %-9s %-22s %6s  %-14s %s",
		"", "SRC", "SCORE", "STATUS", "PRODUCT", "VOTES", "LAUNCHED", "TAGLINE")))
	for i := start; i < end; i++ {
		lines = append(lines, a.renderRow(rows[i], i == a.cursor, width))
	}
	if len(rows) > end-start {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(rows))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderRow(l lead.Lead, current bool, width int) string {
	pointer := " "
	if current {
		pointer = "›"
	}
	check := "[ ]"
	if a.console.Selection().Contains(l.ID) {
		check = selectedStyle.Render("[x]")
	}
	expand := " "
	if a.console.Expanded() == l.ID {
		expand = "▾"
	}
	status := statusStyles[l.Status].Render(fmt.Sprintf("%-9s", l.Status))
	score := scoreStyle(l.Score, a.console.HighScoreThreshold()).Render(fmt.Sprintf("%5d", l.Score))
	launched := "-"
	if t := l.Launched(); !t.IsZero() {
		launched = humanize.Time(t)
	}
	name := ansi.Truncate(l.ProductName, 22, "…")
	line := fmt.Sprintf("%s%s%s %-3s %s  %s %-22s %6d  %-14s %s",
		pointer, expand, check, l.Source.Label(), score, status, name, l.Upvotes,
		ansi.Truncate(launched, 14, "…"), l.Tagline)
	line = ansi.Truncate(line, width, "…")
	if current {
		return cursorStyle.Render(line)
	}
	return line
}

func (a *App) renderDetails(l lead.Lead, width int) string {
	var b strings.Builder
	b.WriteString(panelTitle.Render(strings.ToUpper(l.ProductName)))
	b.WriteString("  " + mutedStyle.Render(l.Source.Title()) + "\n")
	if l.Tagline != "" {
		b.WriteString(detailStyle.Render(ansi.Truncate(l.Tagline, width, "…")) + "\n")
	}
	for _, link := range l.Links() {
		b.WriteString(fmt.Sprintf("%-12s %s\n", link.Label, ansi.Truncate(link.URL, width-13, "…")))
	}
	if notes := l.NotesText(); notes != "" {
		b.WriteString("Notes        " + notes + "\n")
	}

	row := a.console.Details(l.ID)
	b.WriteString("\n" + panelTitle.Render("SCORE") + "  ")
	b.WriteString(slotText(row.Breakdown.State, func() string {
		parts := make([]string, 0, len(row.Breakdown.Value.Factors))
		for _, f := range row.Breakdown.Value.Factors {
			parts = append(parts, fmt.Sprintf("%s +%d", f.Name, f.Points))
		}
		return fmt.Sprintf("%d = %s", row.Breakdown.Value.Total, strings.Join(parts, ", "))
	}) + "\n")
	b.WriteString(panelTitle.Render("DUPLICATES") + "  ")
	b.WriteString(slotText(row.Duplicates.State, func() string {
		info := row.Duplicates.Value
		if !info.IsDuplicate || len(info.Duplicates) == 0 {
			return "none"
		}
		parts := make([]string, 0, len(info.Duplicates))
		for _, d := range info.Duplicates {
			parts = append(parts, fmt.Sprintf("%s (%s, %d)", d.ProductName, d.Source.Label(), d.Score))
		}
		return strings.Join(parts, ", ")
	}) + "\n")
	b.WriteString(panelTitle.Render("EMAILS") + "  ")
	b.WriteString(slotText(row.Emails.State, func() string {
		if len(row.Emails.Value) == 0 {
			return "none"
		}
		return strings.Join(row.Emails.Value, ", ")
	}))

	if ai := a.renderAI(l.ID, width); ai != "" {
		b.WriteString("\n\n" + ai)
	}
	return b.String()
}

func slotText(state console.SlotState, loaded func() string) string {
	switch state {
	case console.SlotLoading:
		return mutedStyle.Render("loading…")
	case console.SlotLoaded:
		return loaded()
	}
	return mutedStyle.Render("—")
}

func (a *App) renderAI(id string, width int) string {
	ai := a.console.AI()
	if ai.Phase == console.AIPending && ai.LeadID == id {
		return a.spinner.View() + " " + mutedStyle.Render(fmt.Sprintf("AI %s in progress", ai.Kind))
	}
	if analysis := ai.AnalysisFor(id); analysis != nil {
		lines := []string{panelTitle.Render("ANALYSIS") + "  " + mutedStyle.Render("confidence "+analysis.Confidence)}
		lines = append(lines, wrap(analysis.Summary, width))
		if len(analysis.PainPoints) > 0 {
			lines = append(lines, "Pain points: "+strings.Join(analysis.PainPoints, "; "))
		}
		if len(analysis.MarketingGaps) > 0 {
			lines = append(lines, "Gaps: "+strings.Join(analysis.MarketingGaps, "; "))
		}
		if analysis.OutreachAngle != "" {
			lines = append(lines, "Angle: "+analysis.OutreachAngle)
		}
		if analysis.SuggestedMessage != "" {
			lines = append(lines, detailStyle.Render(wrap(analysis.SuggestedMessage, width)))
		}
		return strings.Join(lines, "\n")
	}
	if draft := ai.DraftFor(id); draft != nil {
		lines := []string{panelTitle.Render("DRAFT") + "  " + mutedStyle.Render(string(draft.Channel)+" · y to copy")}
		if draft.Subject != "" {
			lines = append(lines, "Subject: "+draft.Subject)
		}
		lines = append(lines, detailStyle.Render(wrap(draft.Body, width)))
		return strings.Join(lines, "\n")
	}
	return ""
}

func (a *App) renderRanking(width int) string {
	ranking := a.console.Ranking()
	if len(ranking) == 0 {
		return ""
	}
	lines := []string{panelTitle.Render("PRIORITY")}
	for _, p := range ranking {
		name := p.ID
		if l, ok := a.console.Lead(p.ID); ok {
			name = l.ProductName
		}
		lines = append(lines, ansi.Truncate(fmt.Sprintf("%2d. %s · %s", p.Priority, name, p.Reason), width, "…"))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	entries, total := a.logbook.Tail(5)
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = renderLogEntry(e, width-2)
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := panelTitle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	return panelStyle.Width(width).Render(head + "\n" + strings.Join(lines, "\n"))
}

func renderLogEntry(e logbook.Entry, width int) string {
	line := e.Message
	if !e.Time.IsZero() {
		line = fmt.Sprintf("%s %-5s %s", e.Time.Local().Format("15:04:05"), e.Level, e.Message)
	}
	if len(e.Attrs) > 0 {
		line += " · " + strings.Join(e.Attrs, " ")
	}
	line = ansi.Truncate(line, width, "…")
	switch e.Level {
	case logbook.LevelError:
		return errorStyle.Render(line)
	case logbook.LevelWarn:
		return scoreMid.Render(line)
	}
	return logStyle.Render(line)
}

func (a *App) renderFooter() string {
	msg := a.statusMsg
	if msg == "" {
		msg = a.console.Notice()
	}
	footer := mutedStyle.Render(msg)
	return footer + "\n" + a.help.View(a.keys)
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
