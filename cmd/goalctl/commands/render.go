package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	statusStyles = map[models.GoalStatus]lipgloss.Style{
		models.GoalStatusNotStarted: cellStyle.Foreground(lipgloss.Color("244")),
		models.GoalStatusInProgress: cellStyle.Foreground(lipgloss.Color("214")),
		models.GoalStatusCompleted:  cellStyle.Foreground(lipgloss.Color("42")).Bold(true),
		models.GoalStatusFailed:     cellStyle.Foreground(lipgloss.Color("196")),
		models.GoalStatusAbandoned:  cellStyle.Foreground(lipgloss.Color("240")).Strikethrough(true),
	}
)

// renderTable writes rows under headers. styleCell, when set, may override the
// style of a data cell.
func renderTable(w io.Writer, headers []string, rows [][]string, styleCell func(row, col int) (lipgloss.Style, bool)) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if styleCell != nil {
				if s, ok := styleCell(row, col); ok {
					return s
				}
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func templateRows(templates []*models.GoalTemplate) [][]string {
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			string(t.Category),
			string(t.Type),
			string(t.Difficulty),
			strings.Join(t.Tags, ", "),
		})
	}
	return rows
}

func writeTemplates(w io.Writer, templates []*models.GoalTemplate) {
	if len(templates) == 0 {
		fmt.Fprintln(w, "No templates")
		return
	}
	renderTable(w, []string{"ID", "TITLE", "CATEGORY", "TYPE", "DIFFICULTY", "TAGS"}, templateRows(templates), nil)
}

const goalStatusColumn = 2

func writeGoals(w io.Writer, list []*models.Goal) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No goals")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, g := range list {
		rows = append(rows, []string{
			g.ID.String(),
			g.Title,
			string(g.Status),
			string(g.Priority),
			strconv.Itoa(g.Progress) + "%",
			fmt.Sprintf("%d / %d", g.StreakCurrent, g.StreakLongest),
		})
	}
	renderTable(w, []string{"ID", "TITLE", "STATUS", "PRIORITY", "PROGRESS", "STREAK"}, rows, func(row, col int) (lipgloss.Style, bool) {
		if col != goalStatusColumn || row < 0 || row >= len(list) {
			return lipgloss.Style{}, false
		}
		s, ok := statusStyles[list[row].Status]
		return s, ok
	})
}

func writeHistory(w io.Writer, entries []*models.GoalProgressEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No progress recorded")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		rows = append(rows, []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(e.Value, 'f', -1, 64),
			note,
		})
	}
	renderTable(w, []string{"RECORDED", "VALUE", "NOTE"}, rows, nil)
}
