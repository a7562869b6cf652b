package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Allowed keys per mapping context. Column maps and seed items are free-form.
var allowedDefinitionKeys = map[string]bool{
	"name":      true,
	"kind":      true,
	"table":     true,
	"columns":   true,
	"fields":    true,
	"id_field":  true,
	"order_by":  true,
	"search_by": true,
	"filter_by": true,
	"paginated": true,
	"page_size": true,
	"join":      true,
	"cache":     true,
	"seed":      true,
	"composite": true,
}

var allowedJoinKeys = map[string]bool{
	"table":   true,
	"on":      true,
	"type":    true,
	"columns": true,
}

var allowedCacheKeys = map[string]bool{
	"ttl_sec": true,
	"size":    true,
}

var allowedCompositeKeys = map[string]bool{
	"parent":       true,
	"child":        true,
	"parent_field": true,
	"child_field":  true,
	"nest_as":      true,
}

var allowedFilterOps = map[string]bool{
	"=": true,
	">": true,
	"<": true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "definition"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "definition":
			allowedKeys = allowedDefinitionKeys
		case "join":
			allowedKeys = allowedJoinKeys
		case "cache":
			allowedKeys = allowedCacheKeys
		case "composite":
			allowedKeys = allowedCompositeKeys
		default:
			allowedKeys = nil
		}

		for i := 0; i < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s (line %d)", key, context, keyNode.Line)
			}

			var nextContext string
			switch {
			case context == "definition" && (key == "join" || key == "cache" || key == "composite"):
				nextContext = key
			case context == "definition" && key == "filter_by":
				nextContext = "filter-map"
			case context == "filter-map":
				nextContext = "filter-ops"
			default:
				nextContext = "free"
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			if context == "filter-ops" {
				if item.Kind != yaml.ScalarNode || !allowedFilterOps[item.Value] {
					return fmt.Errorf("unknown filter operator '%s' (line %d), allowed: = > <", item.Value, item.Line)
				}
				continue
			}
			if err := validateYAMLNode(item, context); err != nil {
				return err
			}
		}

	case yaml.ScalarNode:
		if context == "filter-ops" {
			return fmt.Errorf("filter operators must be a list (line %d)", node.Line)
		}
	}

	return nil
}
