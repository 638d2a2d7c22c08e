package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ReadYAMLFile decodes a YAML document from a file.
func ReadYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error while reading YAML file %s", path)
	}
	doc, err := decodeYAML(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error while parsing YAML file %s", path)
	}
	return doc, nil
}

// ReadYAMLString decodes a YAML document from a string.
func ReadYAMLString(src string) (map[string]any, error) {
	doc, err := decodeYAML([]byte(src))
	if err != nil {
		return nil, errors.Wrap(err, "error while parsing YAML string")
	}
	return doc, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	return normalize(doc).(map[string]any), nil
}
