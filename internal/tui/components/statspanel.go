package components

import (
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/albiondps/meter/pkg/meter"
)

// SortKey selects which column a MeterPanel is ranked by.
type SortKey string

const (
	SortDamage SortKey = "dmg"
	SortDPS    SortKey = "dps"
	SortHeal   SortKey = "heal"
	SortHPS    SortKey = "hps"
)

// MeterRow is one source id's rendered line in the leaderboard.
type MeterRow struct {
	Label  string
	Damage float64
	Heal   float64
	DPS    float64
	HPS    float64
}

// MeterPanel renders a live, sorted damage/heal leaderboard built from
// the most recent meter.Snapshot.
type MeterPanel struct {
	rows        []MeterRow
	sortBy      SortKey
	top         int
	width       int
	height      int
	fullNumbers bool
}

// NewMeterPanel creates a new MeterPanel component.
func NewMeterPanel() MeterPanel {
	return MeterPanel{
		sortBy:      SortDamage,
		top:         0, // 0 means unlimited
		fullNumbers: true,
	}
}

// SetFullNumbers sets whether to display full or abbreviated numbers.
func (m MeterPanel) SetFullNumbers(full bool) MeterPanel {
	m.fullNumbers = full
	return m
}

// SetSize updates the dimensions of the panel.
func (m MeterPanel) SetSize(width, height int) MeterPanel {
	m.width = width
	m.height = height
	return m
}

// SetTop limits the leaderboard to the top N rows. 0 means unlimited.
func (m MeterPanel) SetTop(n int) MeterPanel {
	m.top = n
	return m
}

// SetSort selects the ranking column and re-sorts the current rows.
func (m MeterPanel) SetSort(key SortKey) MeterPanel {
	m.sortBy = key
	m.sortRows()
	return m
}

// CycleSort rotates through dmg -> dps -> heal -> hps -> dmg.
func (m MeterPanel) CycleSort() MeterPanel {
	switch m.sortBy {
	case SortDamage:
		m.sortBy = SortDPS
	case SortDPS:
		m.sortBy = SortHeal
	case SortHeal:
		m.sortBy = SortHPS
	default:
		m.sortBy = SortDamage
	}
	m.sortRows()
	return m
}

// SetSnapshot rebuilds the leaderboard from a fresh meter snapshot.
func (m MeterPanel) SetSnapshot(snap meter.Snapshot) MeterPanel {
	rows := make([]MeterRow, 0, len(snap.Totals))
	for id, totals := range snap.Totals {
		label, ok := snap.Names[id]
		if !ok || label == "" {
			label = fmt.Sprintf("#%d", id)
		}
		rows = append(rows, MeterRow{
			Label:  label,
			Damage: totals.Damage,
			Heal:   totals.Heal,
			DPS:    totals.DPS,
			HPS:    totals.HPS,
		})
	}
	m.rows = rows
	m.sortRows()
	return m
}

// Reset clears the leaderboard.
func (m MeterPanel) Reset() MeterPanel {
	m.rows = nil
	return m
}

func (m *MeterPanel) sortRows() {
	rows := m.rows
	var less func(i, j int) bool
	switch m.sortBy {
	case SortDPS:
		less = func(i, j int) bool { return rows[i].DPS > rows[j].DPS }
	case SortHeal:
		less = func(i, j int) bool { return rows[i].Heal > rows[j].Heal }
	case SortHPS:
		less = func(i, j int) bool { return rows[i].HPS > rows[j].HPS }
	default:
		less = func(i, j int) bool { return rows[i].Damage > rows[j].Damage }
	}
	sort.SliceStable(rows, less)
}

// View renders the leaderboard.
func (m MeterPanel) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Width(14)

	damageStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	healStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	formatNum := func(n float64) string {
		if m.fullNumbers {
			return fmt.Sprintf("%.0f", n)
		}
		return formatAbbreviated(int64(n))
	}

	header := fmt.Sprintf("%-14s %10s %8s %10s %8s", "Name", "Damage", "DPS", "Heal", "HPS")
	rows := []string{lipgloss.NewStyle().Bold(true).Render(header)}

	shown := m.rows
	if m.top > 0 && len(shown) > m.top {
		shown = shown[:m.top]
	}

	for _, r := range shown {
		rows = append(rows, fmt.Sprintf("%s %10s %8s %10s %8s",
			labelStyle.Render(r.Label),
			damageStyle.Render(formatNum(r.Damage)),
			damageStyle.Render(fmt.Sprintf("%.0f", r.DPS)),
			healStyle.Render(formatNum(r.Heal)),
			healStyle.Render(fmt.Sprintf("%.0f", r.HPS)),
		))
	}

	if len(shown) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
		rows = append(rows, emptyStyle.Render("No combat activity yet..."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(m.width - 2).
		Height(m.height - 2).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	title := titleStyle.Render(fmt.Sprintf("Meter (sort: %s)", m.sortBy))

	return boxStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// formatAbbreviated formats a number in abbreviated form (e.g., 4.9k, 1.3M)
func formatAbbreviated(amount int64) string {
	absAmount := amount
	if absAmount < 0 {
		absAmount = -absAmount
	}
	if absAmount >= 1000000 {
		val := math.Floor(float64(absAmount)/100000.0) / 10.0
		return fmt.Sprintf("%.1fM", val)
	} else if absAmount >= 1000 {
		val := math.Floor(float64(absAmount)/100.0) / 10.0
		return fmt.Sprintf("%.1fk", val)
	}
	return fmt.Sprintf("%d", amount)
}
