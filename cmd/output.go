package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeOutput encodes value as indented JSON or as YAML. YAML goes through
// a JSON round trip so both formats share the json field names.
func writeOutput(w io.Writer, format string, value any) error {
	switch format {
	case "", formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	case formatYAML:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plainNumbers(generic)); err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// plainNumbers turns decoded json.Number values back into int64 or float64
// so ids print as integers instead of exponent floats.
func plainNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, elem := range v {
			v[key] = plainNumbers(elem)
		}
	case []any:
		for i, elem := range v {
			v[i] = plainNumbers(elem)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	}
	return value
}
