// Package output provides styled terminal output helpers (success, error,
// warning, reading formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/theo/glucolog/internal/models"
)

var (
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[models.GlucoseStatus]lipgloss.Style{
		models.StatusCriticalLow:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		models.StatusLow:          lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusNormal:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusHigh:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusCriticalHigh: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Reading prints one reading as a single line
func Reading(r *models.Reading) {
	syncMark := subtleStyle.Render("[unsynced]")
	if r.Synced {
		syncMark = subtleStyle.Render("[synced]")
	}
	statusStyle, ok := statusStyles[r.Status]
	if !ok {
		statusStyle = subtleStyle
	}
	fmt.Printf("%s  %6.1f %-6s  %s  %s  %s\n",
		r.MeasuredAt.Local().Format(time.DateTime),
		r.Value, r.Unit,
		statusStyle.Render(string(r.Status)),
		syncMark,
		subtleStyle.Render(r.ID))
	if r.Notes != "" {
		fmt.Printf("    %s\n", subtleStyle.Render(r.Notes))
	}
}
