// -----------------------------------------------------------------------
// PDF Renderer - Markdown to PDF via goldmark AST walk
// -----------------------------------------------------------------------

package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RenderPDF converts a Markdown report into a PDF document. The renderer
// walks the goldmark AST directly and handles the node kinds the report
// builder emits: headings, paragraphs, lists and emphasis. Anything else
// falls back to plain text.
func RenderPDF(markdown string) ([]byte, error) {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	r := &pdfRenderer{pdf: pdf, source: source}
	if err := r.walk(doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
}

func (r *pdfRenderer) walk(doc ast.Node) error {
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			r.heading(n)
		case *ast.Paragraph:
			r.paragraph(n)
		case *ast.List:
			r.list(n, 0)
		case *ast.ThematicBreak:
			r.pdf.Ln(4)
			x, y := r.pdf.GetX(), r.pdf.GetY()
			r.pdf.Line(x, y, x+180, y)
			r.pdf.Ln(4)
		default:
			r.text(node, 10, "")
			r.pdf.Ln(6)
		}
	}
	return nil
}

func (r *pdfRenderer) heading(h *ast.Heading) {
	sizes := map[int]float64{1: 18, 2: 14, 3: 12}
	size, ok := sizes[h.Level]
	if !ok {
		size = 11
	}
	r.pdf.SetFont("Helvetica", "B", size)
	r.pdf.MultiCell(0, size*0.5, r.nodeText(h), "", "L", false)
	r.pdf.Ln(2)
}

func (r *pdfRenderer) paragraph(p *ast.Paragraph) {
	r.text(p, 10, "")
	r.pdf.Ln(3)
}

func (r *pdfRenderer) list(l *ast.List, depth int) {
	indent := float64(depth * 6)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if nested, ok := child.(*ast.List); ok {
				r.list(nested, depth+1)
				continue
			}
			r.pdf.SetX(15 + indent)
			r.pdf.SetFont("Helvetica", "", 10)
			r.pdf.CellFormat(5, 5, "-", "", 0, "L", false, 0, "")
			r.pdf.MultiCell(0, 5, r.nodeText(child), "", "L", false)
		}
	}
	if depth == 0 {
		r.pdf.Ln(2)
	}
}

// text writes a block with bold spans preserved
func (r *pdfRenderer) text(node ast.Node, size float64, indent string) {
	r.pdf.SetFont("Helvetica", "", size)
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Emphasis:
			style := "I"
			if c.Level >= 2 {
				style = "B"
			}
			r.pdf.SetFont("Helvetica", style, size)
			r.pdf.Write(5, r.nodeText(c))
			r.pdf.SetFont("Helvetica", "", size)
		default:
			r.pdf.Write(5, r.inlineText(child))
		}
	}
	r.pdf.Ln(5)
}

// nodeText flattens a node's inline content to plain text
func (r *pdfRenderer) nodeText(node ast.Node) string {
	var buf bytes.Buffer
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		buf.WriteString(r.inlineText(child))
	}
	return buf.String()
}

func (r *pdfRenderer) inlineText(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Text:
		s := string(n.Segment.Value(r.source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return s
	case *ast.String:
		return string(n.Value)
	default:
		var buf bytes.Buffer
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			buf.WriteString(r.inlineText(child))
		}
		return buf.String()
	}
}
