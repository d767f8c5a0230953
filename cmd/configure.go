// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Minetec

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/minetec/bowser/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Edit harness settings interactively",
	Long: `Edit the settings file through a terminal form.

Tab/arrow keys move between fields, Enter on the last field (or Ctrl+S
anywhere) saves, Esc aborts without saving. Numeric fields are validated
on save. A missing refill image only produces a warning: cycles run
without the upload step.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

// Form field order. Indexes are shared between the form and the
// settings round trip below.
const (
	fieldDirectIP = iota
	fieldNozzleID
	fieldVehicleTag
	fieldHours
	fieldLiters
	fieldIncrement
	fieldCount
	fieldTargetName
	fieldImagePath
	fieldUsername
	fieldMax
)

var fieldLabels = [fieldMax]string{
	fieldDirectIP:   "Direct IP (optional)",
	fieldNozzleID:   "Nozzle ID",
	fieldVehicleTag: "Vehicle TAG",
	fieldHours:      "Working hours",
	fieldLiters:     "Refill liters",
	fieldIncrement:  "Liter increment",
	fieldCount:      "# Refills",
	fieldTargetName: "FAS CB name",
	fieldImagePath:  "Refill image",
	fieldUsername:   "Username",
}

var numericFields = map[int]bool{
	fieldHours:     true,
	fieldLiters:    true,
	fieldIncrement: true,
	fieldCount:     true,
}

var (
	configureTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	focusedLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).MarginTop(1)
	helpStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type configureModel struct {
	inputs    [fieldMax]textinput.Model
	focus     int
	status    string
	submitted bool
}

func newConfigureModel(settings config.Settings) configureModel {
	values := [fieldMax]string{
		fieldDirectIP:   settings.DirectIP,
		fieldNozzleID:   settings.NozzleID,
		fieldVehicleTag: settings.VehicleTag,
		fieldHours:      strconv.Itoa(settings.WorkingHours),
		fieldLiters:     strconv.Itoa(settings.RefillLiters),
		fieldIncrement:  strconv.Itoa(settings.LiterIncrement),
		fieldCount:      strconv.Itoa(settings.RefillCount),
		fieldTargetName: settings.TargetDeviceName,
		fieldImagePath:  settings.ImagePath,
		fieldUsername:   settings.Username,
	}

	var m configureModel
	for i := 0; i < fieldMax; i++ {
		in := textinput.New()
		in.SetValue(values[i])
		in.CharLimit = 64
		in.Width = 40
		m.inputs[i] = in
	}
	m.inputs[0].Focus()
	return m
}

func (m configureModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m configureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.submitted = false
			return m, tea.Quit

		case "ctrl+s":
			return m.submit()

		case "enter":
			if m.focus == fieldMax-1 {
				return m.submit()
			}
			m.setFocus(m.focus + 1)
			return m, nil

		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldMax)
			return m, nil

		case "shift+tab", "up":
			m.setFocus((m.focus + fieldMax - 1) % fieldMax)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *configureModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[i].Focus()
}

// submit validates numeric fields and quits the form on success.
func (m configureModel) submit() (tea.Model, tea.Cmd) {
	for i := 0; i < fieldMax; i++ {
		if !numericFields[i] {
			continue
		}
		if _, err := strconv.Atoi(m.inputs[i].Value()); err != nil {
			m.status = fmt.Sprintf("%s must be a number", fieldLabels[i])
			m.setFocus(i)
			return m, nil
		}
	}
	m.submitted = true
	return m, tea.Quit
}

func (m configureModel) View() string {
	s := configureTitleStyle.Render("Bowser settings") + "\n"

	for i := 0; i < fieldMax; i++ {
		label := blurredLabelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = focusedLabelStyle.Render(fieldLabels[i])
		}
		s += fmt.Sprintf("%-22s %s\n", label, m.inputs[i].View())
	}

	if m.status != "" {
		s += statusStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("tab/arrows: move • ctrl+s: save • esc: abort") + "\n"
	return s
}

func runConfigure(cmd *cobra.Command, args []string) error {
	m := newConfigureModel(loadSettings())

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("form error: %v", err)
	}

	fm, ok := final.(configureModel)
	if !ok || !fm.submitted {
		fmt.Println("Aborted, nothing saved.")
		return nil
	}

	atoi := func(i int) int {
		// Validated in submit.
		n, _ := strconv.Atoi(fm.inputs[i].Value())
		return n
	}

	settings := config.Settings{
		DirectIP:         fm.inputs[fieldDirectIP].Value(),
		NozzleID:         fm.inputs[fieldNozzleID].Value(),
		VehicleTag:       fm.inputs[fieldVehicleTag].Value(),
		WorkingHours:     atoi(fieldHours),
		RefillLiters:     atoi(fieldLiters),
		LiterIncrement:   atoi(fieldIncrement),
		RefillCount:      atoi(fieldCount),
		TargetDeviceName: fm.inputs[fieldTargetName].Value(),
		ImagePath:        fm.inputs[fieldImagePath].Value(),
		Username:         fm.inputs[fieldUsername].Value(),
	}

	if _, err := os.Stat(settings.ImagePath); err != nil {
		fmt.Printf("Warning: refill image %s does not exist; upload will be skipped.\n", settings.ImagePath)
	}

	if err := settings.Save(cfgPath); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	fmt.Printf("Saved %s\n", cfgPath)
	return nil
}
