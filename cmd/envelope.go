package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// successEnvelope flattens a result into {"success": true, ...fields}.
func successEnvelope(result any) (map[string]any, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "marshal result")
	}
	env := map[string]any{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "flatten result")
	}
	env["success"] = true
	return env, nil
}

func failureEnvelope(err error) map[string]any {
	return map[string]any{"success": false, "error": err.Error()}
}

// writeOutput renders v as indented JSON or, with format "yaml", YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	default:
		return eris.Errorf("unknown output format %q (valid: json, yaml)", format)
	}
}
