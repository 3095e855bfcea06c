package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of descriptor text.
type Format int

const (
	// FormatSorbet is the line-oriented "key => value" text.
	FormatSorbet Format = iota
	// FormatYAML is a flat YAML mapping.
	FormatYAML
)

const (
	separator    = "=>"
	continuation = ">"
	comment      = "#"
)

var (
	// ErrSyntax is returned for lines the sorbet grammar does not accept.
	ErrSyntax = errors.New("descriptor syntax error")
	// errNotMapping is returned when a YAML descriptor is not a flat mapping.
	errNotMapping = errors.New("yaml descriptor must be a mapping")
)

// Parse decodes text in the given format and validates the required fields.
func Parse(text string, format Format) (*Descriptor, error) {
	var (
		fields map[string]string
		err    error
	)

	switch format {
	case FormatYAML:
		fields, err = decodeYAML(text)
	default:
		fields, err = decodeSorbet(text)
	}

	if err != nil {
		return nil, err
	}

	return New(fields)
}

func decodeSorbet(text string) (map[string]string, error) {
	var (
		fields  = make(map[string]string)
		lastKey string
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, comment) {
			continue
		}

		if strings.HasPrefix(line, continuation) {
			if lastKey == "" {
				return nil, fmt.Errorf("%w: line %d: continuation without a key", ErrSyntax, i+1)
			}

			fields[lastKey] += "\n" + strings.TrimSpace(strings.TrimPrefix(line, continuation))

			continue
		}

		key, value, ok := strings.Cut(line, separator)
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrSyntax, i+1, line)
		}

		fields[key] = strings.TrimSpace(value)
		lastKey = key
	}

	return fields, nil
}

func decodeYAML(text string) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode yaml descriptor: %w", err)
	}

	if len(doc.Content) == 0 {
		return map[string]string{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errNotMapping
	}

	fields := make(map[string]string, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		switch value.Kind {
		case yaml.ScalarNode:
			if value.Tag == "!!null" {
				fields[key.Value] = ""
			} else {
				fields[key.Value] = value.Value
			}
		case yaml.SequenceNode:
			lines := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%w: %s must hold plain commands", errNotMapping, key.Value)
				}

				lines = append(lines, item.Value)
			}

			fields[key.Value] = strings.Join(lines, "\n")
		default:
			return nil, fmt.Errorf("%w: %s has a nested value", errNotMapping, key.Value)
		}
	}

	return fields, nil
}
