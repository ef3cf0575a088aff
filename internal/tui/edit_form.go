package tui

import (
	"fmt"
	"strings"

	"catalog-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// editForm is the write-mode rendering of the row under edit: one input per layout
// attribute, materialized through the attribute's Resolve kind on save.
type editForm struct {
	entity model.Entity
	layout model.Layout
	inputs []textinput.Model
	focus  int
	err    string
}

func newEditForm(e model.Entity, l model.Layout) editForm {
	f := editForm{entity: e, layout: l}
	for _, a := range l.Attributes {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 0
		v, _ := e.Value(a.Key)
		in.SetValue(a.Resolve.Format(v))
		switch a.Resolve {
		case model.ResolveBoolean:
			in.Placeholder = "true/false"
		case model.ResolveArray:
			in.Placeholder = "a, b, c"
		}
		f.inputs = append(f.inputs, in)
	}
	f.setFocus(0)
	return f
}

func (f *editForm) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = ((i % len(f.inputs)) + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	f.focus = i
}

// values returns the field map handed to Controller.Save.
func (f editForm) values() (map[string]any, error) {
	out := make(map[string]any, len(f.inputs))
	for i, a := range f.layout.Attributes {
		v, err := a.Resolve.Parse(f.inputs[i].Value())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attrLabel(a), err)
		}
		out[a.Key] = v
	}
	return out, nil
}

func (f editForm) update(msg tea.Msg) (editForm, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = ""
	return f, cmd
}

func (f editForm) view(width int, saving bool) string {
	labelW := 0
	for _, a := range f.layout.Attributes {
		labelW = max(labelW, lipgloss.Width(attrLabel(a)))
	}
	inputW := max(width-labelW-6, 10)

	var b strings.Builder
	title := fmt.Sprintf("Edit %s #%d", f.layout.Name, f.entity.ID)
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")
	for i, a := range f.layout.Attributes {
		label := lipgloss.NewStyle().Width(labelW).Foreground(colorChromeFg).Render(attrLabel(a))
		in := f.inputs[i]
		in.Width = inputW
		row := lipgloss.JoinHorizontal(lipgloss.Top, label, "  ", lipgloss.NewStyle().Background(colorControlBg).Render(in.View()))
		if i == f.focus {
			row = lipgloss.NewStyle().Foreground(colorAccent).Render("›") + " " + row
		} else {
			row = "  " + row
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styleBanner(true).Render(f.err))
		b.WriteString("\n")
	}
	if saving {
		b.WriteString("\n")
		b.WriteString(styleMuted().Render("saving…"))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Background(colorEditBg).
		Padding(0, 1).
		Width(max(width-2, 20)).
		Render(strings.TrimRight(b.String(), "\n"))
}

func attrLabel(a model.Attribute) string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.Key
}
