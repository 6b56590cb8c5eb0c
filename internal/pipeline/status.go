package pipeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// statusRow is one role's line in the end-of-run status table.
type statusRow struct {
	role    core.RoleID
	skipped bool
	aborted bool
	failed  bool
}

var (
	statusOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	statusFailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	statusSkipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	statusHeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderStatusTable prints the step 11 status table: one line per role,
// non-interactive stdout formatting only (no bubbletea program loop), the
// one surviving piece of the teacher's charmbracelet/lipgloss dependency.
func (p *Pipeline) renderStatusTable() {
	fmt.Println(statusHeaderStyle.Render("Role Status"))
	var skipped []core.RoleID
	for _, row := range p.statusRows {
		label, style := statusLabelAndStyle(row)
		fmt.Printf("  %-24s %s\n", row.role, style.Render(label))
		if row.skipped {
			skipped = append(skipped, row.role)
		}
	}
	if len(skipped) > 0 {
		fmt.Println(statusSkipStyle.Render("  skipped: " + formatRoleList(skipped)))
	}
}

func statusLabelAndStyle(row statusRow) (string, lipgloss.Style) {
	switch {
	case row.skipped:
		return "SKIPPED", statusSkipStyle
	case row.aborted:
		return "ABORTED", statusFailStyle
	case row.failed:
		return "FAILED", statusFailStyle
	default:
		return "OK", statusOKStyle
	}
}

// formatRoleList joins role ids for a compact log line.
func formatRoleList(ids []core.RoleID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
