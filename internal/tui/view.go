package tui

import (
	"fmt"
	"strings"

	"task_manager/internal/client"
	"task_manager/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

var successText = map[client.Op]string{
	client.OpCreateTask: "Task created",
	client.OpUpdateTask: "Task updated",
	client.OpDeleteTask: "Task deleted",
}

// noticeOps are checked in order; the first failure wins.
var noticeOps = []client.Op{
	client.OpCreateTask,
	client.OpUpdateTask,
	client.OpDeleteTask,
	client.OpFetchTasks,
	client.OpFetchStats,
	client.OpLoadUser,
}

// notice derives the transient message from request states.
func notice(s client.Snapshot) (text string, failed bool) {
	for _, op := range noticeOps {
		if st := s.Request(op); st.Phase == client.Failed {
			return st.Message, true
		}
	}
	for _, op := range noticeOps {
		if text, ok := successText[op]; ok && s.Request(op).Phase == client.Succeeded {
			return text, false
		}
	}
	return "", false
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(renderStats(m.snap.Stats))
	b.WriteString("\n\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n\n")
	b.WriteString(m.renderTasks())
	b.WriteString("\n")

	switch m.mode {
	case modeSearch:
		b.WriteString("\nSearch: " + m.input.View() + "\n")
	case modeCreate:
		b.WriteString("\nNew task: " + m.input.View() + "\n")
	case modeEdit:
		b.WriteString("\nEdit title: " + m.input.View() + "\n")
	}

	if text, failed := notice(m.snap); text != "" {
		if failed {
			b.WriteString("\n" + errorStyle.Render("✗ "+text) + "\n")
		} else {
			b.WriteString("\n" + successStyle.Render("✓ "+text) + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("Task Dashboard")
	if u := m.snap.User; u != nil {
		return title + dimStyle.Render(fmt.Sprintf("  %s <%s>", u.Username, u.Email))
	}
	return title
}

func renderStats(s domain.Stats) string {
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(fmt.Sprintf("Total\n%d", s.Total)),
		cardStyle.Render(fmt.Sprintf("Todo\n%d", s.Todo)),
		cardStyle.Render(fmt.Sprintf("In Progress\n%d", s.InProgress)),
		cardStyle.Render(fmt.Sprintf("Completed\n%d", s.Completed)),
	)

	rows := []struct {
		status domain.Status
		n      int64
	}{
		{domain.StatusTodo, s.Todo},
		{domain.StatusInProgress, s.InProgress},
		{domain.StatusCompleted, s.Completed},
	}
	var chart strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&chart, "%-12s %s %d\n", r.status, statusStyle(string(r.status)).Render(bar(r.n, s.Total)), r.n)
	}
	return cards + "\n" + strings.TrimRight(chart.String(), "\n")
}

// bar renders n/total as a fixed-width bar.
func bar(n, total int64) string {
	filled := 0
	if total > 0 {
		filled = int(n * barWidth / total)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func (m Model) renderFilterLine() string {
	status := "All"
	if m.filter.Status != "" {
		status = string(m.filter.Status)
	}
	line := fmt.Sprintf("Filter: %s", status)
	if m.filter.Search != "" {
		line += fmt.Sprintf("   Search: %q", m.filter.Search)
	}
	line += fmt.Sprintf("   (%d shown)", len(m.snap.Tasks))
	if m.snap.Request(client.OpFetchTasks).Phase == client.Pending {
		line += "  loading..."
	}
	return line
}

func (m Model) renderTasks() string {
	if len(m.snap.Tasks) == 0 {
		return dimStyle.Render("  No tasks found")
	}

	var b strings.Builder
	for i, t := range m.snap.Tasks {
		status := statusStyle(string(t.Status)).Render(fmt.Sprintf("%-13s", "["+string(t.Status)+"]"))
		line := fmt.Sprintf("%s %s  %s", status, t.Title, dimStyle.Render(t.CreatedAt.Local().Format("Jan 2 15:04")))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) help() string {
	switch m.mode {
	case modeSearch:
		return "enter: done • esc: clear search"
	case modeCreate, modeEdit:
		return "enter: save • esc: cancel"
	default:
		return "j/k: move • n: new • e: edit • s: next status • d: delete • f: filter • /: search • r: refresh • q: quit"
	}
}
