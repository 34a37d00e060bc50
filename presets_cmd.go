package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readtext/internal/rules"
)

var (
	presetsCmd = &cobra.Command{
		Use:     "presets",
		Short:   "List the reading rule presets",
		Long:    paragraph(fmt.Sprintf("\n%s the reading rule presets: the built-in ones and those found in preset_dirs.", keyword("List"))),
		Example: paragraph("readtext presets\nreadtext presets show latex\nreadtext presets match paper.tex"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, _, err := loadRules()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), presetTable(reg))
			return nil
		},
	}

	presetsShowCmd = &cobra.Command{
		Use:   "show NAME",
		Short: "Show the rules of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := loadRules()
			if err != nil {
				return err
			}
			p, err := lookupPreset(reg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ruleTable(p))
			return nil
		},
	}

	presetsMatchCmd = &cobra.Command{
		Use:   "match FILE",
		Short: "Show which preset a file name selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := loadRules()
			if err != nil {
				return err
			}
			name, ok := reg.ResolveForFilename(args[0])
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle("no preset matches "+args[0]))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
)

func init() {
	presetsCmd.AddCommand(presetsShowCmd, presetsMatchCmd)
}

// loadRules builds the registry with the configured preset directories and
// returns it with the rule-set configuration.
func loadRules() (*rules.Registry, rules.Config, error) {
	reg := rules.DefaultRegistry()
	rc, err := cfg.RuleConfig(reg)
	if err != nil {
		return nil, rules.Config{}, err //nolint:wrapcheck
	}
	return reg, rc, nil
}

// lookupPreset finds a preset by name, suggesting close names when it is
// unknown.
func lookupPreset(reg *rules.Registry, name string) (rules.Preset, error) {
	if p, ok := reg.Lookup(name); ok {
		return p, nil
	}
	if s := suggest(name, reg.Names()); len(s) > 0 {
		return rules.Preset{}, fmt.Errorf("unknown preset %q, did you mean %s?", name, strings.Join(s, " or "))
	}
	return rules.Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(reg.Names(), ", "))
}

// suggest returns up to three candidates that fuzzily match name.
func suggest(name string, candidates []string) []string {
	matches := fuzzy.Find(strings.ToLower(name), candidates)
	out := make([]string, 0, 3)
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

func presetTable(reg *rules.Registry) string {
	var rows [][]string
	for _, p := range reg.Presets() {
		rows = append(rows, []string{
			p.Name,
			strings.Join(p.FilePatterns, " "),
			fmt.Sprint(len(p.Rules)),
			p.Description,
		})
	}
	return renderTable(
		[]string{"Name", "Files", "Rules", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func ruleTable(p rules.Preset) string {
	rows := make([][]string, 0, len(p.Rules))
	for i, r := range p.Rules {
		rows = append(rows, []string{fmt.Sprint(i + 1), r.Kind().String(), describeRule(r)})
	}
	return renderTable(
		[]string{"#", "Type", "Rule"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

func describeRule(r rules.Rule) string {
	switch r := r.(type) {
	case rules.CommandRule:
		mask := make([]string, 0, r.ArgCount)
		for i := 0; i < r.ArgCount; i++ {
			if r.Keeps(i) {
				mask = append(mask, "keep")
			} else {
				mask = append(mask, "drop")
			}
		}
		desc := fmt.Sprintf(`\%s {%s}`, r.Name, strings.Join(mask, ","))
		if r.HasOptionalArg {
			desc += " [opt]"
		}
		if r.Prefix != "" || r.Suffix != "" {
			desc += fmt.Sprintf(" %q…%q", r.Prefix, r.Suffix)
		}
		return desc
	case rules.RangeRule:
		return fmt.Sprintf("%s … %s", r.Start, r.End)
	case rules.ExcludeRule:
		return patternString(r.Pattern, r.Regex, r.Flags)
	case rules.ReplaceRule:
		return fmt.Sprintf("%s → %q", patternString(r.Pattern, r.Regex, r.Flags), r.Replacement)
	default:
		return ""
	}
}

func patternString(pattern string, regex bool, flags string) string {
	if regex {
		return "/" + pattern + "/" + flags
	}
	return fmt.Sprintf("%q", pattern)
}
