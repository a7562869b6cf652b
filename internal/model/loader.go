package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"RestyAPI/internal/logger"

	"gopkg.in/yaml.v3"
)

// LoadDefinitionsFromDir reads every *.yml / *.yaml file in dir, in name order.
func LoadDefinitionsFromDir(dir string) ([]*Definition, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	defs := make([]*Definition, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, def)
		logger.Info("definition_loaded", map[string]any{
			"file": filepath.Base(path),
			"name": def.Name,
			"kind": def.EffectiveKind(),
		})
	}
	return defs, nil
}

// ParseDefinition checks the YAML keys, then decodes one definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if err := validateYAMLNode(root.Content[0], "definition"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var def Definition
	if err := root.Decode(&def); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	return &def, nil
}
