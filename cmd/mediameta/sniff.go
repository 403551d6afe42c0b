package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simonhull/mediameta"
)

func newSniffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sniff <file>...",
		Short: "Identify the container format of files",
		Long: `Sniff reads the first bytes of each file and prints the detected
format and MIME type without walking the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "PATH\tFORMAT\tMIME TYPE\n")
			for _, path := range args {
				format, err := sniffFile(path)
				if err != nil {
					return err
				}
				a.logger.Debug("sniffed", "path", path, "format", format.String())

				mime := format.MIMEType()
				if mime == "" {
					mime = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", path, format, mime)
			}
			return nil
		},
	}
}

func sniffFile(path string) (mediameta.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return mediameta.FormatUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return mediameta.FormatUnknown, fmt.Errorf("stat file: %w", err)
	}
	return mediameta.DetectFormat(f, stat.Size()), nil
}
