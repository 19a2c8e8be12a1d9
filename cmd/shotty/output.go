package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/shotty/pkg/resource"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// row is anything printable as a comma-joined report line.
type row interface {
	Fields() []string
}

// writeRows prints one line per item in text mode, or the whole list as a
// JSON or YAML document.
func writeRows[T row](w io.Writer, format string, items []T) error {
	if format == outputText {
		for _, item := range items {
			if _, err := fmt.Fprintln(w, resource.Line(item.Fields())); err != nil {
				return err
			}
		}
		return nil
	}
	if items == nil {
		items = []T{}
	}
	return writeDocument(w, format, items)
}

// writeDocument encodes v as JSON or YAML.
func writeDocument(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format: %s", format)
	}
}
