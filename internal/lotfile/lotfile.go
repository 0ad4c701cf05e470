// Package lotfile reads lot configurations and bidder inputs from YAML or JSON
// documents.
package lotfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/huangsam/bidsim/schema"
	"go.yaml.in/yaml/v3"
)

// ErrUnsupportedFormat is returned for documents that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// supportedExts lists the file extensions accepted by LoadLot and LoadInputs.
var supportedExts = []string{".yaml", ".yml", ".json"}

// LoadLot reads a lot document. Keys that do not map to a LotConfig field are
// returned as warnings.
func LoadLot(path string) (schema.LotConfig, []string, error) {
	var lot schema.LotConfig
	warnings, err := load(path, &lot)
	if err != nil {
		return schema.LotConfig{}, nil, err
	}
	return lot, warnings, nil
}

// LoadInputs reads a bidder input document.
func LoadInputs(path string) (schema.ScoreInputs, []string, error) {
	var inputs schema.ScoreInputs
	warnings, err := load(path, &inputs)
	if err != nil {
		return schema.ScoreInputs{}, nil, err
	}
	return inputs, warnings, nil
}

// ParseLot decodes a lot from YAML or JSON bytes.
func ParseLot(data []byte) (schema.LotConfig, []string, error) {
	var lot schema.LotConfig
	warnings, err := decode(data, &lot)
	return lot, warnings, err
}

// ParseInputs decodes bidder inputs from YAML or JSON bytes.
func ParseInputs(data []byte) (schema.ScoreInputs, []string, error) {
	var inputs schema.ScoreInputs
	warnings, err := decode(data, &inputs)
	return inputs, warnings, err
}

func load(path string, out any) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(supportedExts, ext) {
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedFormat, path, strings.Join(supportedExts, ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	warnings, err := decode(data, out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return warnings, nil
}

// decode parses YAML (a superset of JSON) into a generic tree, then maps it
// onto out through the json struct tags. Map keys keep their case, so
// requirement ids and certification labels survive verbatim.
func decode(data []byte, out any) ([]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("document is empty")
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       criterionShorthandHook,
		Metadata:         &md,
		Result:           out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	warnings := make([]string, 0, len(md.Unused))
	for _, key := range slices.Sorted(slices.Values(md.Unused)) {
		warnings = append(warnings, fmt.Sprintf("unknown field %q ignored", key))
	}
	return warnings, nil
}

var criterionInputType = reflect.TypeFor[schema.CriterionInput]()

// criterionShorthandHook accepts a bare judgement label or a bare number
// wherever a CriterionInput is expected.
func criterionShorthandHook(_, to reflect.Type, data any) (any, error) {
	if to != criterionInputType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return map[string]any{"judgement": v}, nil
	case int:
		return map[string]any{"value": float64(v)}, nil
	case float64:
		return map[string]any{"value": v}, nil
	}
	return data, nil
}
