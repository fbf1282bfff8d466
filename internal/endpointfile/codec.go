package endpointfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vedsharma/reqkit/internal/model"
)

// Format is the host text format of an endpoint file
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format by file extension, defaulting to TOML
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// ParseFormat maps a user-supplied format name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported endpoint format %q", name)
	}
}

// Parse decodes an endpoint record. The version is checked before anything else.
func Parse(data []byte, format Format) (model.Endpoint, error) {
	var probe versionProbe
	if err := decode(data, format, &probe); err != nil {
		return model.Endpoint{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if probe.Version != SchemaVersion {
		return model.Endpoint{}, fmt.Errorf("%w: version %d, want %d", ErrOutdatedSchema, probe.Version, SchemaVersion)
	}

	var rec record
	if err := decode(data, format, &rec); err != nil {
		return model.Endpoint{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return toEndpoint(rec)
}

// Store encodes e as a version 1 record
func Store(e model.Endpoint, format Format) ([]byte, error) {
	rec, err := fromEndpoint(e)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTOML, "":
		return toml.Marshal(rec)
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(rec); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint format %q", format)
	}
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatTOML, "":
		return toml.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported endpoint format %q", format)
	}
}
