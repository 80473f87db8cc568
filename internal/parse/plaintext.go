package parse

import (
	"strings"
)

// PlainTextParser is the parser of last resort: it claims every
// extension and never fails, producing a single "content" section.
// Its doc type encodes the original extension so downstream consumers
// can distinguish "yaml that failed to parse" from "genuinely
// unstructured text".
type PlainTextParser struct{}

func (PlainTextParser) CanParse(string) bool {
	return true
}

func (PlainTextParser) Parse(content, path string) (ParsedDocument, error) {
	return ParsedDocument{
		Content:  content,
		Sections: []Section{{Header: "content", Content: strings.TrimSpace(content), SectionType: "content"}},
		DocType:  plaintextDocType(path),
	}, nil
}

func plaintextDocType(path string) string {
	ext := extensionOf(path)
	switch ext {
	case "yaml", "yml":
		return "yaml_plaintext"
	case "json":
		return "json_plaintext"
	case "xml":
		return "xml_plaintext"
	default:
		return "plaintext"
	}
}

func extensionOf(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}
