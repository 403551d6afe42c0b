package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/mediameta"
	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/tree"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the record structure of a file",
		Long: `Tree prints every box, chunk or segment of a file with its size and
offset, indented by nesting depth. Payloads are never decoded.`,
		Example: `  mediameta tree song.m4a
  mediameta tree --verbose clip.avi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			stat, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat file: %w", err)
			}

			format := mediameta.DetectFormat(f, stat.Size())
			if format == mediameta.FormatUnknown {
				return &mediameta.UnsupportedFormatError{Path: path, Reason: "unrecognized file signature"}
			}

			out := cmd.OutOrStdout()
			c := binary.NewBufferCursor(f, stat.Size(), path)
			errs, err := tree.Dump(cmd.Context(), c, format, out, a.walkerConfig())
			if err != nil {
				return err
			}
			for _, e := range errs {
				fmt.Fprintf(out, "Error: %s\n", e)
			}
			return nil
		},
	}
}
