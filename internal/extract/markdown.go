package extract

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// decodeMarkdown parses markdown and returns the text of every block, one block per line.
// Markup (emphasis, links, heading markers) is dropped; code block content is kept verbatim.
func decodeMarkdown(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	data = trimBOM(data)

	doc := markdownParser.Parser().Parse(text.NewReader(data))

	var b strings.Builder
	endBlock := func() {
		if b.Len() == 0 {
			return
		}
		if s := b.String(); s[len(s)-1] != '\n' {
			b.WriteByte('\n')
		}
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				endBlock()
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(data))
			if v.HardLineBreak() {
				b.WriteByte('\n')
			} else if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(data))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(b.String()), nil
}

func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
