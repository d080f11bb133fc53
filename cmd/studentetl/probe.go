package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"studentetl/internal/datasource"
	"studentetl/internal/datasource/file"
	"studentetl/internal/datasource/httpds"
	"studentetl/internal/parser"
	"studentetl/internal/probe"
	"studentetl/internal/schema"
)

func newProbeCmd(c *cli) *cobra.Command {
	var (
		opt      probe.Options
		kind     string
		delim    string
		asJSON   bool
		insecure bool
	)
	cmd := &cobra.Command{
		Use:   "probe <file|url|->",
		Short: "Show the columns of an upload and the schema they match",
		Long: `Probe samples the head of a CSV (or the first sheet of an XLSX file), prints
each column with its normalized key and inferred type and reports which
required columns each schema still lacks. Rows are not cleaned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if delim != "" {
				r, _ := utf8.DecodeRuneInString(delim)
				opt.Delimiter = r
			}
			if kind == "" {
				kind = c.cfg.Parser.Kind
			}
			k := parser.CSV
			if kind != "" || args[0] != file.Stdin {
				var err error
				if k, err = parser.Resolve(kind, args[0]); err != nil {
					return err
				}
			}
			src := datasource.For(args[0], httpds.NewClient(httpds.Config{InsecureSkipVerify: insecure}), c.stdin)
			rep, err := probe.Probe(cmd.Context(), src, k, opt)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return writeProbe(c, rep)
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&opt.MaxBytes, "max-bytes", probe.DefaultMaxBytes, "bytes of CSV to sample")
	fl.IntVar(&opt.MaxRows, "max-rows", probe.DefaultMaxRows, "data rows used for type inference")
	fl.StringVar(&opt.Sheet, "sheet", "", "XLSX worksheet (default: first)")
	fl.StringVarP(&delim, "delimiter", "d", "", "CSV delimiter (default: sniffed)")
	fl.StringVar(&kind, "kind", "", "input format: csv or xlsx (default: by extension)")
	fl.BoolVar(&asJSON, "json", false, "print the report as JSON")
	fl.BoolVar(&insecure, "insecure", false, "skip TLS verification for URL inputs")
	return cmd
}

func writeProbe(c *cli, rep probe.Report) error {
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HEADER\tKEY\tTYPE\tEMPTY")
	for _, col := range rep.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", col.Header, col.Key, col.Type, col.Empty)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sampled := fmt.Sprintf("%d rows sampled", rep.Sampled)
	if rep.Truncated {
		sampled += " (truncated)"
	}
	fmt.Fprintf(c.stdout, "\n%s: %s\n", rep.Source, sampled)
	if rep.Tag != schema.Unrecognized {
		fmt.Fprintf(c.stdout, "matches %s\n", rep.Tag.Label())
		return nil
	}
	fmt.Fprintln(c.stdout, "matches no schema")
	for _, t := range []schema.Tag{schema.SecondaryEducation, schema.TertiaryEducation} {
		fmt.Fprintf(c.stdout, "  %s lacks: %s\n", t.Label(), strings.Join(rep.Missing[t.Label()], ", "))
	}
	return nil
}
