package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/ui"
)

// usageTemplate is cobra's default usage template with headings, command
// names and flag details routed through the styling functions below.
const usageTemplate = `{{heading "Usage:"}}{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

{{heading "Aliases:"}}
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

{{heading "Examples:"}}
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

{{heading "Available Commands:"}}{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{command .Name .NamePadding}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{heading .Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{command .Name .NamePadding}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

{{heading "Additional Commands:"}}{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{command .Name .NamePadding}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{heading "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces | flagDetails}}{{end}}{{if .HasAvailableInheritedFlags}}

{{heading "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces | flagDetails}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

var (
	// "--server string", "--limit int"
	reFlagType = regexp.MustCompile(`(--?\S+\s+)(string|int|float|duration)\b`)
	reDefault  = regexp.MustCompile(`\(default [^)]*\)`)
)

func init() {
	cobra.AddTemplateFunc("heading", ui.RenderAccent)
	cobra.AddTemplateFunc("command", func(name string, pad int) string {
		return ui.RenderCommand(name) + strings.Repeat(" ", max(pad-len(name), 0))
	})
	cobra.AddTemplateFunc("flagDetails", flagDetails)
}

// flagDetails mutes the value type and default in pflag's usage lines.
func flagDetails(s string) string {
	s = reFlagType.ReplaceAllStringFunc(s, func(match string) string {
		parts := reFlagType.FindStringSubmatch(match)
		return parts[1] + ui.RenderMuted(parts[2])
	})
	return reDefault.ReplaceAllStringFunc(s, ui.RenderMuted)
}

// helpFunc prints a command's description and usage, styled when --color
// allows it for the command's output. Help runs without setup, so the color
// decision is made here.
func helpFunc(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	// An invalid --color value is reported by setup; help falls back to auto.
	if applyColor(out) != nil && !ui.ColorAuto.Enabled(out) {
		ui.ForceNoColor()
	}
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		fmt.Fprintln(out, strings.TrimSpace(desc))
		fmt.Fprintln(out)
	}
	_ = cmd.Usage()
}
