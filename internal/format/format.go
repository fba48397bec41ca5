package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type DataFormat string

const (
	FORMAT_LIST DataFormat = "list"
	FORMAT_JSON DataFormat = "json"
	FORMAT_YAML DataFormat = "yaml"
)

func (df DataFormat) String() string {
	return string(df)
}

func (df *DataFormat) Set(v string) error {
	switch DataFormat(v) {
	case FORMAT_LIST, FORMAT_JSON, FORMAT_YAML:
		*df = DataFormat(v)
		return nil
	default:
		return fmt.Errorf("must be one of %v", []DataFormat{
			FORMAT_LIST, FORMAT_JSON, FORMAT_YAML,
		})
	}
}

func (df DataFormat) Type() string {
	return "DataFormat"
}

// Marshal() marshals arbitrary data into a byte slice formatted as
// outFormat. The list format is rendered by the caller and cannot be
// marshaled here.
func Marshal(data any, outFormat DataFormat) ([]byte, error) {
	switch outFormat {
	case FORMAT_JSON:
		bytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into JSON: %w", err)
		}
		return bytes, nil
	case FORMAT_YAML:
		bytes, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into YAML: %w", err)
		}
		return bytes, nil
	case FORMAT_LIST:
		return nil, fmt.Errorf("this data format cannot be marshaled")
	default:
		return nil, fmt.Errorf("unknown data format: %s", outFormat)
	}
}

// Unmarshal() unmarshals a byte slice formatted as inFormat into v.
func Unmarshal(data []byte, v any, inFormat DataFormat) error {
	switch inFormat {
	case FORMAT_JSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal data from JSON: %w", err)
		}
	case FORMAT_YAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal data from YAML: %w", err)
		}
	case FORMAT_LIST:
		return fmt.Errorf("this data format cannot be unmarshaled")
	default:
		return fmt.Errorf("unknown data format: %s", inFormat)
	}
	return nil
}

// ReadFile() reads and unmarshals path using the format implied by its
// extension, or defaultFmt when the extension is not recognized.
func ReadFile(path string, v any, defaultFmt DataFormat) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return Unmarshal(b, v, DataFormatFromFileExt(path, defaultFmt))
}

// DataFormatFromFileExt() figures out the type of the contents (JSON or
// YAML) from the filename extension, using defaultFmt when it matches
// neither.
func DataFormatFromFileExt(path string, defaultFmt DataFormat) DataFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FORMAT_JSON
	case ".yaml", ".yml":
		return FORMAT_YAML
	}
	return defaultFmt
}
