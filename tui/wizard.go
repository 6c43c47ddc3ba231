// Package tui is the interactive wizard: pick a diagram, review the
// validation findings, apply fixes and write the Dataverse payloads,
// all without memorizing CLI flags.
package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mermdv/config"
	"mermdv/corrector"
	"mermdv/generator"
	"mermdv/loader"
	"mermdv/validator"
)

// Outcome is what the wizard did, reported back to the command layer.
type Outcome struct {
	DiagramFile   string
	FixesApplied  int
	DiagramSaved  bool
	ArtifactsFile string
	Warnings      []validator.Warning
}

type step int

const (
	stepDiagram step = iota
	stepReview
	stepAction
	stepDone
)

const (
	choiceFixAll   = "Apply all auto-fixes and save the diagram"
	choiceNoFix    = "Continue without fixing"
	choiceGenerate = "Write Dataverse payloads to artifacts.json"
	choiceSummary  = "Show a summary and exit"
	choiceQuit     = "Quit"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

type model struct {
	cfg     *config.Config
	keys    keyMap
	step    step
	input   textinput.Model
	options []string
	cursor  int

	text     string
	warnings []validator.Warning
	outcome  Outcome
	err      error
	quitting bool
}

func newModel(cfg *config.Config) model {
	ti := textinput.New()
	ti.Placeholder = cfg.Diagram
	ti.SetValue(cfg.Diagram)
	ti.CharLimit = 256
	ti.Width = 48
	ti.Focus()

	return model{
		cfg:   cfg,
		keys:  defaultKeyMap(),
		step:  stepDiagram,
		input: ti,
	}
}

// Run drives the wizard to completion and returns what it did.
func Run(cfg *config.Config) (*Outcome, error) {
	final, err := tea.NewProgram(newModel(cfg)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok {
		return nil, fmt.Errorf("unexpected wizard state")
	}
	if m.err != nil {
		return nil, m.err
	}
	return &m.outcome, nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok && key.Matches(keyMsg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.step {
	case stepDiagram:
		if ok && key.Matches(keyMsg, m.keys.Select) {
			return m.loadDiagram()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case stepReview, stepAction:
		if !ok {
			return m, nil
		}
		switch {
		case key.Matches(keyMsg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(keyMsg, m.keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case key.Matches(keyMsg, m.keys.Select):
			return m.choose(m.options[m.cursor])
		}
		return m, nil

	case stepDone:
		if ok {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) loadDiagram() (tea.Model, tea.Cmd) {
	file := strings.TrimSpace(m.input.Value())
	if file == "" {
		file = m.cfg.Diagram
	}
	d, text, err := loader.LoadDiagramFromFile(file)
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	loader.MarkCDMEntities(d, m.cfg.CDMEntities)

	m.outcome.DiagramFile = file
	m.text = text
	m.warnings = validator.Validate(d)
	m.step = stepReview
	m.cursor = 0
	if fixableCount(m.warnings) > 0 {
		m.options = []string{choiceFixAll, choiceNoFix, choiceQuit}
	} else {
		m.options = []string{choiceNoFix, choiceQuit}
	}
	return m, nil
}

func (m model) choose(choice string) (tea.Model, tea.Cmd) {
	switch choice {
	case choiceFixAll:
		result := corrector.FixAll(m.text, m.warnings)
		if len(result.Resolved) > 0 {
			if err := os.WriteFile(m.outcome.DiagramFile, []byte(result.Text), 0644); err != nil {
				m.err = fmt.Errorf("saving corrected diagram: %v", err)
				return m, tea.Quit
			}
			m.text = result.Text
			m.outcome.FixesApplied = len(result.Resolved)
			m.outcome.DiagramSaved = true
		}
		d := loader.ParseDiagram(m.text)
		loader.MarkCDMEntities(d, m.cfg.CDMEntities)
		m.warnings = validator.Validate(d)
		fallthrough

	case choiceNoFix:
		m.outcome.Warnings = m.warnings
		m.step = stepAction
		m.cursor = 0
		m.options = []string{choiceGenerate, choiceSummary, choiceQuit}
		return m, nil

	case choiceGenerate:
		if err := m.writeArtifacts(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.step = stepDone
		return m, nil

	case choiceSummary:
		m.step = stepDone
		return m, nil
	}

	m.quitting = true
	return m, tea.Quit
}

func (m *model) writeArtifacts() error {
	d := loader.ParseDiagram(m.text)
	loader.MarkCDMEntities(d, m.cfg.CDMEntities)

	gen := generator.New(m.cfg.Publisher.Prefix, nil)
	if m.cfg.GlobalChoices != "" {
		loaded, err := loader.LoadGlobalChoicesFromJSON(m.cfg.GlobalChoices)
		if err != nil {
			return fmt.Errorf("loading global choices: %v", err)
		}
		gen = generator.New(m.cfg.Publisher.Prefix, loaded)
	}

	artifacts, err := gen.Generate(d)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile("artifacts.json", data, 0644); err != nil {
		return fmt.Errorf("writing artifacts.json: %v", err)
	}
	m.outcome.ArtifactsFile = "artifacts.json"
	return nil
}

func (m model) View() string {
	if m.quitting || m.err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("mermdv wizard") + "\n")

	switch m.step {
	case stepDiagram:
		b.WriteString(labelStyle.Render("Mermaid diagram file") + "\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter: load · esc: quit"))

	case stepReview:
		b.WriteString(renderWarnings(m.warnings))
		b.WriteString(renderOptions(m.options, m.cursor))

	case stepAction:
		b.WriteString(renderSummaryLine(m.warnings, m.outcome.FixesApplied) + "\n\n")
		b.WriteString(renderOptions(m.options, m.cursor))

	case stepDone:
		b.WriteString(renderSummaryLine(m.warnings, m.outcome.FixesApplied) + "\n")
		if m.outcome.DiagramSaved {
			b.WriteString(successStyle.Render("✔ corrected diagram saved to "+m.outcome.DiagramFile) + "\n")
		}
		if m.outcome.ArtifactsFile != "" {
			b.WriteString(successStyle.Render("✔ payloads written to "+m.outcome.ArtifactsFile) + "\n")
		}
		b.WriteString(helpStyle.Render("press any key to exit"))
	}

	b.WriteString("\n")
	return b.String()
}

func renderWarnings(warnings []validator.Warning) string {
	if len(warnings) == 0 {
		return successStyle.Render("✔ no issues found") + "\n\n"
	}

	var b strings.Builder
	for _, w := range warnings {
		style := infoStyle
		mark := "ℹ"
		switch w.Severity {
		case validator.SeverityWarning:
			style, mark = warningStyle, "⚠"
		case validator.SeverityError:
			style, mark = errorStyle, "✘"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %s", mark, w.Message)) + "\n")
		if w.Suggestion != "" {
			b.WriteString(suggestionStyle.Render(w.Suggestion) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func renderOptions(options []string, cursor int) string {
	var b strings.Builder
	for i, opt := range options {
		if i == cursor {
			b.WriteString(selectedStyle.Render("› "+opt) + "\n")
		} else {
			b.WriteString(unselectedStyle.Render("  "+opt) + "\n")
		}
	}
	b.WriteString(helpStyle.Render("↑/↓: move · enter: select · esc: quit"))
	return b.String()
}

func renderSummaryLine(warnings []validator.Warning, fixed int) string {
	errors, warns := 0, 0
	for _, w := range warnings {
		switch w.Severity {
		case validator.SeverityError:
			errors++
		case validator.SeverityWarning:
			warns++
		}
	}
	line := fmt.Sprintf("%d errors, %d warnings remaining", errors, warns)
	if fixed > 0 {
		line = fmt.Sprintf("%d fixes applied · %s", fixed, line)
	}
	if errors > 0 {
		return errorStyle.Render(line)
	}
	if warns > 0 {
		return warningStyle.Render(line)
	}
	return successStyle.Render(line)
}

func fixableCount(warnings []validator.Warning) int {
	n := 0
	for _, w := range warnings {
		if w.AutoFixable {
			n++
		}
	}
	return n
}
