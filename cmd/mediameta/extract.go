package main

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/mediameta"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		output       string
		asJSON       bool
		ignoreErrors bool
	)

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Print the metadata of one or more files",
		Long: `Extract walks each file and prints every directory it produced.

Text output has one line per tag, "[Directory] Tag - Value", followed by
"[Directory] Error - message" for problems recorded while walking. Files
are processed concurrently; output keeps the order of the arguments.`,
		Example: `  mediameta extract clip.mov
  mediameta extract --json *.wav
  mediameta extract --strict --max-depth 16 photo.heic`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				output = "json"
			}
			opts := a.options()
			if ignoreErrors {
				opts = append(opts, mediameta.WithIgnoreErrors())
			}

			results, err := mediameta.ExtractMany(cmd.Context(), args, opts...)
			if err != nil {
				return err
			}

			reports := make([]fileReport, len(results))
			for i, md := range results {
				reports[i] = newFileReport(md)
			}
			return writeReports(cmd.OutOrStdout(), reports, output)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "text", "output format (text, json, yaml)")
	flags.BoolVar(&asJSON, "json", false, "shorthand for --output json")
	flags.BoolVar(&ignoreErrors, "ignore-errors", false, "omit errors recorded while walking")
	flags.Bool("strict", false, "fail on the first recorded error")
	flags.Int("max-depth", 0, "maximum container nesting (default 64)")
	flags.Int64("max-payload", 0, "maximum bytes read for one record (default 64 MiB)")
	a.bind("strict", flags.Lookup("strict"))
	a.bind("max_depth", flags.Lookup("max-depth"))
	a.bind("max_payload", flags.Lookup("max-payload"))
	return cmd
}
