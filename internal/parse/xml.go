package parse

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// XMLParser turns the depth-1 children of the root element into
// sections, keyed by element name, with their inner text concatenated.
// The root element itself never becomes a section.
type XMLParser struct{}

func (XMLParser) CanParse(extension string) bool {
	return extension == "xml"
}

func (XMLParser) Parse(content, path string) (ParsedDocument, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var sections []Section
	var depth int
	var current *Section
	var buf strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(buf.String())
		current.Content = text
		sections = append(sections, *current)
		current = nil
		buf.Reset()
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return ParsedDocument{}, fmt.Errorf("parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				flush()
				current = &Section{Header: t.Name.Local, SectionType: t.Name.Local}
			}
		case xml.CharData:
			if depth >= 2 && current != nil {
				buf.Write(t)
			}
		case xml.EndElement:
			if depth == 2 {
				flush()
			}
			depth--
		}
	}

	docType := "xml"
	lowerPath := strings.ToLower(path)
	if strings.Contains(lowerPath, "prompt.xml") || strings.Contains(lowerPath, "agent") {
		docType = "structured_prompt"
	}

	return ParsedDocument{Content: content, Sections: sections, DocType: docType}, nil
}
