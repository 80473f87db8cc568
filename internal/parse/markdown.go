package parse

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser splits a Markdown document into sections at heading
// boundaries, preserving fenced code blocks and lifting a leading YAML
// frontmatter block into its own section.
type MarkdownParser struct{}

func (MarkdownParser) CanParse(extension string) bool {
	return extension == "md" || extension == "markdown"
}

func (MarkdownParser) Parse(content, _ string) (ParsedDocument, error) {
	body, frontmatter := splitFrontmatter(content)
	source := []byte(body)

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var sections []Section
	var current *Section
	var buf strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(buf.String())
		if text != "" {
			current.Content = text
			sections = append(sections, *current)
		}
		buf.Reset()
	}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			current = &Section{
				Header:      blockRawText(node, source),
				SectionType: fmt.Sprintf("h%d", node.Level),
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			lang := string(node.Language(source))
			buf.WriteString("```")
			buf.WriteString(lang)
			buf.WriteByte('\n')
			buf.WriteString(blockRawText(node, source))
			buf.WriteString("\n```\n")
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			buf.WriteString("```\n")
			buf.WriteString(blockRawText(node, source))
			buf.WriteString("\n```\n")
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			buf.WriteString(blockRawText(node, source))
			buf.WriteString(" ")
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			buf.WriteString("- ")
			buf.WriteString(blockRawText(node, source))
			buf.WriteByte('\n')
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return ParsedDocument{}, err
	}
	flush()

	if frontmatter != "" {
		sections = append([]Section{{Header: "frontmatter", Content: frontmatter, SectionType: "frontmatter"}}, sections...)
	}

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return ParsedDocument{Content: content, DocType: "markdown"}, nil
		}
		sections = []Section{{Header: "content", Content: trimmed, SectionType: "content"}}
	}

	return ParsedDocument{Content: content, Sections: sections, DocType: "markdown"}, nil
}

// blockRawText joins the raw source lines belonging to a block node,
// bypassing inline child nodes so entity references and emphasis
// markers survive untouched in the section text.
func blockRawText(n ast.Node, source []byte) string {
	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSpace(b.String())
}

// splitFrontmatter strips a leading "---\n...\n---" YAML block, if
// present, returning the remaining body and the frontmatter text
// (without delimiters).
func splitFrontmatter(content string) (body, frontmatter string) {
	const delim = "---"
	trimmed := strings.TrimLeft(content, "\n")
	if !strings.HasPrefix(trimmed, delim) {
		return content, ""
	}
	rest := trimmed[len(delim):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return content, ""
	}
	frontmatter = strings.TrimSpace(rest[:idx])
	remainder := rest[idx+1+len(delim):]
	remainder = strings.TrimPrefix(remainder, "\r\n")
	remainder = strings.TrimPrefix(remainder, "\n")
	return remainder, frontmatter
}
