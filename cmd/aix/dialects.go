package main

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/dispatch"
	"github.com/spf13/cobra"
)

func newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the registered vendor dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, d := range dispatch.Dialects() {
				host := dispatch.DefaultHost(d)
				if host == "" {
					host = "(host required)"
				}
				family := ""
				if d.IsOpenAIFamily() || d == api.DialectOllama {
					family = " openai-compatible"
				}
				if _, err := fmt.Fprintf(out, "%-12s %s%s\n", d, host, family); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newProfilesCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(ro)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range cfg.Names() {
				p := cfg.Profiles[name]
				marker := " "
				if name == cfg.Default {
					marker = "*"
				}
				if _, err := fmt.Fprintf(out, "%s %-12s %-12s %s\n", marker, name, p.Access.Dialect, p.Model.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
