package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/pipeline"
	"voice-outbound-service/internal/service/remote"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(0, 1).
			Width(80)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("240")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

func field(label, value string) string {
	if value == "" {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value)) + "\n"
}

// renderCard formats a run result for the terminal.
func renderCard(res *models.CallResult) string {
	var b strings.Builder

	lang := string(res.Language)
	if res.AutoDetected {
		lang += " (auto)"
	}

	b.WriteString(headingStyle.Render("CALL"))
	b.WriteString("\n")
	b.WriteString(field("Run", res.RunID))
	b.WriteString(field("Contact", res.Contact.FullName))
	b.WriteString(field("Company", res.Contact.Company))
	b.WriteString(field("Title", res.Contact.Title))
	b.WriteString(field("Email", res.Contact.Email))
	b.WriteString(field("Language", lang))
	b.WriteString(field("Model", strings.TrimPrefix(res.Provider+"/"+res.Model, "/")))

	b.WriteString("\n")
	b.WriteString(headingStyle.Render("SCRIPT"))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(res.Script.FullText()))
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("AUDIO"))
	b.WriteString("\n")
	b.WriteString(field("Duration", fmt.Sprintf("%.2fs", res.Audio.DurationSeconds)))
	b.WriteString(field("Size", fmt.Sprintf("%d bytes", len(res.Audio.Data))))
	b.WriteString(field("File", res.Audio.LocalPath))

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderError names the failed stage and, for rate limits, the remediation.
func renderError(err error) string {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		msg := errorStyle.Render("Failed at "+se.Stage.Label()) + "\n" + err.Error()
		if remote.IsKind(err, remote.KindRateLimit) {
			msg += "\n" + valueStyle.Render("Hint: "+remote.RemediationRateLimit)
		}
		return msg
	}
	return errorStyle.Render("Error") + "\n" + err.Error()
}
