package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"studentetl/internal/config"
	"studentetl/internal/schema"
)

func newSchemasCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the recognized datasets and their required columns",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCHEMA\tLABEL\tREQUIRED COLUMNS")
			for _, t := range []schema.Tag{schema.SecondaryEducation, schema.TertiaryEducation} {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t, t.Label(), strings.Join(schema.RequiredKeys(t), ", "))
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Report every configuration issue",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				issues := config.Validate(c.cfg)
				for _, iss := range issues {
					fmt.Fprintln(c.stdout, iss.Error())
				}
				if config.HasErrors(issues) {
					return fmt.Errorf("config: %d issue(s)", len(issues))
				}
				if len(issues) == 0 {
					fmt.Fprintln(c.stdout, "config ok")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the merged configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				enc := yaml.NewEncoder(c.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(c.cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
	)
	return cmd
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(c.stdout, "studentetl version %s\n", version)
			return err
		},
	}
}
