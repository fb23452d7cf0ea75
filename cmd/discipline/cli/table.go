// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers; nil headers omit the header row.
// Colors and bold are dropped when Stdout is not a terminal.
func Table(headers []string, rows [][]string) string {
	rendered := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if len(headers) > 0 {
		rendered = rendered.Headers(headers...)
	}
	return rendered.String()
}

// WriteTable writes Table to Stdout.
func WriteTable(headers []string, rows [][]string) error {
	_, err := fmt.Fprintln(Stdout, Table(headers, rows))
	return err
}

var (
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Highlight colors a protector state or a yes/no answer: red for
// locked, yellow for a running grace period, green for free.
func Highlight(text string) string {
	switch text {
	case "activated", "refused", "yes":
		return activeStyle.Render(text)
	case "deactivating":
		return pendingStyle.Render(text)
	case "deactivated", "permitted", "no":
		return idleStyle.Render(text)
	default:
		return text
	}
}
