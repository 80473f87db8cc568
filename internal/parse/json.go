package parse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JSONParser extracts sections from a JSON document. If the document
// looks like a JSON Schema (has "definitions" and/or "properties" top
// level keys), each named definition/property becomes its own section;
// otherwise every top-level key becomes a section.
type JSONParser struct{}

func (JSONParser) CanParse(extension string) bool {
	return extension == "json"
}

func (JSONParser) Parse(content, _ string) (ParsedDocument, error) {
	var root map[string]any
	if err := json.Unmarshal([]byte(content), &root); err != nil {
		return ParsedDocument{}, fmt.Errorf("parsing json: %w", err)
	}

	var sections []Section
	_, hasDefinitions := root["definitions"]
	_, hasProperties := root["properties"]

	if hasDefinitions || hasProperties {
		if defs, ok := root["definitions"].(map[string]any); ok {
			for _, name := range sortedKeys(defs) {
				sections = append(sections, Section{
					Header:      name,
					Content:     formatSchemaDefinition(name, defs[name]),
					SectionType: "schema_definition",
				})
			}
		}
		if props, ok := root["properties"].(map[string]any); ok {
			for _, name := range sortedKeys(props) {
				sections = append(sections, Section{
					Header:      name,
					Content:     formatSchemaProperty(name, props[name]),
					SectionType: "schema_property",
				})
			}
		}
		return ParsedDocument{Content: content, Sections: sections, DocType: "json_schema"}, nil
	}

	for _, key := range sortedKeys(root) {
		sections = append(sections, Section{
			Header:      key,
			Content:     jsonValueToText(root[key]),
			SectionType: "field",
		})
	}
	return ParsedDocument{Content: content, Sections: sections, DocType: "json"}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatSchemaDefinition(name string, value any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Definition: %s\n", name)
	b.WriteString(jsonValueToText(value))
	return b.String()
}

func formatSchemaProperty(name string, value any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Property: %s\n", name)
	b.WriteString(jsonValueToText(value))
	return b.String()
}

// jsonValueToText renders a decoded JSON value as readable text,
// favoring the "description" and "type" fields of schema-like objects
// when present.
func jsonValueToText(v any) string {
	switch val := v.(type) {
	case map[string]any:
		if desc, ok := val["description"].(string); ok {
			var b strings.Builder
			b.WriteString(desc)
			if typ, ok := val["type"].(string); ok {
				fmt.Fprintf(&b, " (type: %s)", typ)
			}
			return b.String()
		}
		var parts []string
		for _, k := range sortedKeys(val) {
			parts = append(parts, fmt.Sprintf("%s: %s", k, jsonValueToText(val[k])))
		}
		return strings.Join(parts, "\n")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = jsonValueToText(item)
		}
		return strings.Join(parts, ", ")
	case string:
		return val
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}
