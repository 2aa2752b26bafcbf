package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpNameStyle = lipgloss.NewStyle().
			Bold(true)

	helpMutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

type helpEntry struct {
	name   string
	help   string
	suffix string
}

// StyledHelpPrinter returns a kong help printer that renders the selected
// command's subcommands, arguments and flags with lipgloss styles. Flags
// show their default and environment variable.
func StyledHelpPrinter(title string) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		node := ctx.Selected()
		if node == nil {
			node = ctx.Model.Node
		}

		var sb strings.Builder

		sb.WriteString(TitleStyle.Render(title))
		sb.WriteString("\n")

		if help := node.Help; help != "" {
			sb.WriteString(helpMutedStyle.Render(help))
			sb.WriteString("\n")
		}

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(node.Summary())
		sb.WriteString("\n")

		writeSection(&sb, "Commands:", commandEntries(node))
		writeSection(&sb, "Arguments:", argumentEntries(node))
		writeSection(&sb, "Flags:", flagEntries(node))

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())

		return nil
	}
}

func writeSection(sb *strings.Builder, title string, entries []helpEntry) {
	if len(entries) == 0 {
		return
	}

	width := 0
	for _, e := range entries {
		width = max(width, len(e.name))
	}

	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(helpNameStyle.Render(fmt.Sprintf("%-*s", width, e.name)))

		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}

		if e.suffix != "" {
			sb.WriteString(" ")
			sb.WriteString(helpMutedStyle.Render(e.suffix))
		}

		sb.WriteString("\n")
	}
}

func commandEntries(node *kong.Node) []helpEntry {
	var entries []helpEntry

	for _, child := range node.Children {
		if child.Hidden || child.Type != kong.CommandNode {
			continue
		}

		entries = append(entries, helpEntry{name: child.Name, help: child.Help})
	}

	return entries
}

func argumentEntries(node *kong.Node) []helpEntry {
	var entries []helpEntry

	for _, arg := range node.Positional {
		entries = append(entries, helpEntry{name: arg.Summary(), help: arg.Help})
	}

	return entries
}

func flagEntries(node *kong.Node) []helpEntry {
	entries := []helpEntry{{name: "-h, --help", help: "Show context-sensitive help."}}

	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			if f.Name == "help" {
				continue
			}

			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, %s", f.Short, name)
			}

			if !f.IsBool() {
				name += "=" + f.FormatPlaceHolder()
			}

			var notes []string
			if f.HasDefault && f.Default != "" {
				notes = append(notes, "default: "+f.Default)
			}

			if len(f.Tag.Envs) > 0 {
				notes = append(notes, "$"+strings.Join(f.Tag.Envs, ", $"))
			}

			e := helpEntry{name: name, help: f.Help}
			if len(notes) > 0 {
				e.suffix = "(" + strings.Join(notes, "; ") + ")"
			}

			entries = append(entries, e)
		}
	}

	return entries
}
