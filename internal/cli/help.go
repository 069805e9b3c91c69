package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(LumaWhite).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ChromaBlue).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ChromaBlue).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(LumaWhite).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(ChromaRed).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(SlateGray).
				Italic(true)
)

// StyledHelpPrinter renders kong help for p with Lipgloss styling
func StyledHelpPrinter(p Program) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		fmt.Fprint(ctx.Stdout, renderHelp(p, positionals(ctx.Model.Node), flags(ctx.Model.Node)))
		return nil
	}
}

// UsageLine is the one-line synopsis printed on usage errors
func (p Program) UsageLine() string {
	if p.Usage == "" {
		return fmt.Sprintf("usage: %s [flags]", p.Name)
	}
	return fmt.Sprintf("usage: %s %s [flags]", p.Name, p.Usage)
}

func renderHelp(p Program, args []argument, flagList []flag) string {
	var sb strings.Builder

	sb.WriteString(helpTitleStyle.Render(p.Name))
	sb.WriteString("\n")
	if p.Description != "" {
		sb.WriteString(helpDescStyle.Render(p.Description))
		sb.WriteString("\n")
	}

	sb.WriteString(helpSectionStyle.Render("Usage:"))
	sb.WriteString("\n  ")
	sb.WriteString(strings.TrimPrefix(p.UsageLine(), "usage: "))
	sb.WriteString("\n")

	if len(args) > 0 {
		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Arguments:"))
		sb.WriteString("\n")
		for _, arg := range args {
			sb.WriteString("  ")
			sb.WriteString(helpArgStyle.Render(arg.name))
			if arg.help != "" {
				sb.WriteString("  ")
				sb.WriteString(arg.help)
			}
			sb.WriteString("\n")
		}
	}

	if len(flagList) > 0 {
		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Flags:"))
		sb.WriteString("\n")
		for _, f := range flagList {
			sb.WriteString("  ")
			sb.WriteString(helpFlagStyle.Render(f.flags))
			if f.help != "" {
				sb.WriteString("  ")
				sb.WriteString(f.help)
			}
			if f.defaultVal != "" {
				sb.WriteString(" ")
				sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

func positionals(node *kong.Node) []argument {
	var args []argument
	for _, arg := range node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

func flags(node *kong.Node) []flag {
	list := []flag{{
		flags: "-h, --help",
		help:  "Show context-sensitive help.",
	}}

	for _, f := range node.Flags {
		if f.Name == "help" {
			continue
		}

		flagStr := fmt.Sprintf("--%s", f.Name)
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}

		// Only show defaults that carry information
		defaultVal := ""
		if f.HasDefault && !f.IsBool() && f.Default != "" && f.Default != "0" {
			defaultVal = f.Default
		}

		list = append(list, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: defaultVal,
		})
	}
	return list
}
