package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var structuredFormats = []string{formatTable, formatJSON, formatYAML}

func parseOutputFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		return formatTable, nil
	}
	for _, allowed := range structuredFormats {
		if format == allowed {
			return format, nil
		}
	}
	return "", &UnsupportedFormatError{Format: raw, Allowed: structuredFormats}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("writeStructured: %w", &UnsupportedFormatError{Format: format, Allowed: []string{formatJSON, formatYAML}})
	}
}
