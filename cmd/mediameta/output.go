package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/mediameta"
)

// fileReport is the serializable form of one extraction. Values are
// rendered as display strings so every output format agrees.
type fileReport struct {
	Path        string      `json:"path" yaml:"path"`
	Format      string      `json:"format" yaml:"format"`
	Directories []dirReport `json:"directories" yaml:"directories"`
}

type dirReport struct {
	Name   string      `json:"name" yaml:"name"`
	Tags   []tagReport `json:"tags,omitempty" yaml:"tags,omitempty"`
	Errors []string    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type tagReport struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func newFileReport(md *mediameta.Metadata) fileReport {
	r := fileReport{
		Path:        md.Path,
		Format:      md.Format.String(),
		Directories: []dirReport{},
	}
	for _, d := range md.Directories() {
		dr := dirReport{Name: d.Name, Errors: d.Errors()}
		for _, tag := range d.TagList() {
			dr.Tags = append(dr.Tags, tagReport{Name: tag.Name, Value: tag.String()})
		}
		r.Directories = append(r.Directories, dr)
	}
	return r
}

// writeReports renders reports in the named format.
func writeReports(w io.Writer, reports []fileReport, format string) error {
	switch format {
	case "text":
		return writeText(w, reports)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, reports []fileReport) error {
	for i, r := range reports {
		if len(reports) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "======== %s\n", r.Path)
		}
		if len(r.Directories) == 0 {
			fmt.Fprintf(w, "No metadata found (%s)\n", r.Format)
			continue
		}
		for _, d := range r.Directories {
			for _, t := range d.Tags {
				fmt.Fprintf(w, "[%s] %s - %s\n", d.Name, t.Name, t.Value)
			}
			for _, e := range d.Errors {
				fmt.Fprintf(w, "[%s] Error - %s\n", d.Name, e)
			}
		}
	}
	return nil
}
