package quest

import (
	"strings"

	"golang.org/x/net/html"
)

// Markup сериализует узел в компактную XML-разметку.
func (n *Node) Markup() string {
	var sb strings.Builder
	n.writeMarkup(&sb)
	return sb.String()
}

// InnerMarkup сериализует только детей узла.
func (n *Node) InnerMarkup() string {
	var sb strings.Builder
	for _, c := range n.children {
		c.writeMarkup(&sb)
	}
	return sb.String()
}

func (n *Node) writeMarkup(sb *strings.Builder) {
	if n.IsText() {
		sb.WriteString(html.EscapeString(n.text))
		return
	}
	n.writeOpenTag(sb)
	for _, c := range n.children {
		c.writeMarkup(sb)
	}
	sb.WriteString("</" + n.tag + ">")
}

func (n *Node) writeOpenTag(sb *strings.Builder) {
	sb.WriteString("<" + n.tag)
	for _, a := range n.attrs {
		sb.WriteString(" " + a.Key + `="` + html.EscapeString(a.Value) + `"`)
	}
	sb.WriteString(">")
}

// Indented сериализует узел по элементу на строку.
// Элементы только со строчными детьми остаются в одной строке.
func (n *Node) Indented(indent string) string {
	var sb strings.Builder
	n.writeIndented(&sb, indent, 0)
	return sb.String()
}

func (n *Node) writeIndented(sb *strings.Builder, indent string, depth int) {
	pad := strings.Repeat(indent, depth)
	if n.IsText() || n.inlineOnly() {
		sb.WriteString(pad)
		n.writeMarkup(sb)
		return
	}
	sb.WriteString(pad)
	n.writeOpenTag(sb)
	for _, c := range n.children {
		if c.IsText() && strings.TrimSpace(c.text) == "" {
			continue
		}
		sb.WriteString("\n")
		c.writeIndented(sb, indent, depth+1)
	}
	sb.WriteString("\n" + pad + "</" + n.tag + ">")
}

func (n *Node) inlineOnly() bool {
	for _, c := range n.children {
		if !c.kind.IsInline() {
			return false
		}
	}
	return true
}
