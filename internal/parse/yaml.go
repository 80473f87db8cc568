package parse

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLParser turns the top-level mapping keys of a YAML document into
// sections, in source order.
type YAMLParser struct{}

func (YAMLParser) CanParse(extension string) bool {
	return extension == "yaml" || extension == "yml"
}

func (YAMLParser) Parse(content, _ string) (ParsedDocument, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return ParsedDocument{}, fmt.Errorf("parsing yaml: %w", err)
	}

	var sections []Section
	if len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode {
		mapping := doc.Content[0]
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			key := mapping.Content[i]
			value := mapping.Content[i+1]
			sections = append(sections, Section{
				Header:      key.Value,
				Content:     yamlNodeToText(value),
				SectionType: "field",
			})
		}
	}

	return ParsedDocument{Content: content, Sections: sections, DocType: "yaml"}, nil
}

// yamlNodeToText renders a YAML node as readable text, mirroring the
// handling of strings, scalars, sequences, and nested mappings.
func yamlNodeToText(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" && n.Tag == "!!null" {
			return "null"
		}
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, item := range n.Content {
			parts[i] = yamlNodeToText(item)
		}
		return strings.Join(parts, ", ")
	case yaml.MappingNode:
		var parts []string
		for i := 0; i+1 < len(n.Content); i += 2 {
			parts = append(parts, fmt.Sprintf("%s: %s", n.Content[i].Value, yamlNodeToText(n.Content[i+1])))
		}
		return strings.Join(parts, "\n")
	default:
		return n.Value
	}
}
