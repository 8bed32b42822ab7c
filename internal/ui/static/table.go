// Package static provides non-interactive terminal output components:
// borderless tables and the row builders for each forge listing.
package static

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

// Column headers for each listing.
var (
	RepoHeaders  = []string{"REPOSITORY", "VISIBILITY", "BRANCH", "UPDATED", "DESCRIPTION"}
	OrgHeaders   = []string{"NAME", "PATH", "DESCRIPTION"}
	IssueHeaders = []string{"#", "STATE", "TITLE", "AUTHOR", "LABELS"}
	PRHeaders    = []string{"#", "STATE", "TITLE", "AUTHOR", "BRANCH"}
)

// maxDescription truncates free-text columns so a table row stays on one line.
const maxDescription = 60

// RenderTable creates a formatted table with proper column alignment.
// Column widths come from lipgloss/table; no borders are rendered.
// Returns empty string when there are no rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Bold.Foreground(styles.Primary).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	return t.String() + "\n"
}

// RepoRow builds a table row matching RepoHeaders.
func RepoRow(r forge.Repository) []string {
	visibility := "public"
	if r.Private {
		visibility = styles.WarningStyle.Render("private")
	}
	updated := ""
	if !r.UpdatedAt.IsZero() {
		updated = r.UpdatedAt.Format("2006-01-02")
	}
	return []string{
		r.FullName,
		visibility,
		r.DefaultBranch,
		updated,
		styles.MutedStyle.Render(truncate(r.Description, maxDescription)),
	}
}

// OrgRow builds a table row matching OrgHeaders.
func OrgRow(o forge.Organization) []string {
	return []string{o.Name, o.FullPath, truncate(o.Description, maxDescription)}
}

// IssueRow builds a table row matching IssueHeaders.
func IssueRow(i forge.Issue) []string {
	state := styles.StateStyle(i.State, false)
	return []string{
		styles.FormatRef(i.Number, i.State, false, i.URL),
		state.Render(styles.FormatState(i.State, false)),
		truncate(i.Title, maxDescription),
		i.Author,
		strings.Join(i.Labels, ","),
	}
}

// PRRow builds a table row matching PRHeaders.
func PRRow(pr forge.PullRequest) []string {
	state := styles.StateStyle(pr.State, pr.Draft)
	branch := pr.HeadBranch
	if pr.BaseBranch != "" {
		branch += " → " + pr.BaseBranch
	}
	return []string{
		styles.FormatRef(pr.Number, pr.State, pr.Draft, pr.URL),
		state.Render(styles.FormatState(pr.State, pr.Draft)),
		truncate(pr.Title, maxDescription),
		pr.Author,
		branch,
	}
}

// KeyValue renders aligned "key: value" lines, used for single-item views.
func KeyValue(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	var sb strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		key := styles.Bold.Render(p[0] + ":")
		sb.WriteString(key + strings.Repeat(" ", width-len(p[0])+1) + p[1] + "\n")
	}
	return sb.String()
}

// Count renders a trailing "N items" summary line.
func Count(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return styles.MutedStyle.Render(strconv.Itoa(n) + " " + noun)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
