package compiler

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"quest-server/internal/quest"
)

// Только абзацы, выделение и inline HTML. Списки, ссылки, код и заголовки
// markdown остаются обычным текстом: их тегов нет в белом списке квеста.
var markdown = goldmark.New(
	goldmark.WithParser(parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewRawHTMLParser(), 400),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

var opRe = regexp.MustCompile(`{{[\s\S]+?}}`)

var tagAliases = map[string]string{
	"strong": "b",
}

// markupConverter переводит HTML от goldmark в узлы дерева. Теги вне
// белого списка и атрибуты-обработчики (onclick и т.п.) отбрасываются
// с предупреждением 419, текст внутри них сохраняется.
type markupConverter struct {
	log     *Log
	line    int
	ops     []string
	flagged map[string]bool
}

func (mc *markupConverter) restore(s string) string {
	for i, op := range mc.ops {
		s = strings.ReplaceAll(s, placeholder(i), op)
	}
	return s
}

func (mc *markupConverter) warn(what string) {
	if mc.flagged[what] {
		return
	}
	mc.flagged[what] = true
	mc.log.Warn(mc.line, fmt.Sprintf("unsupported markup %s was removed", what), CodeUnsupportedMarkup)
}

// renderMarkdown превращает текст абзаца в блочные узлы (обычно один <p>).
// Вставки {{op}} прячутся от markdown, чтобы * и _ внутри них уцелели.
func renderMarkdown(text string, line int, log *Log) ([]*quest.Node, error) {
	mc := &markupConverter{log: log, line: line, flagged: map[string]bool{}}
	shielded := opRe.ReplaceAllStringFunc(text, func(op string) string {
		mc.ops = append(mc.ops, op)
		return placeholder(len(mc.ops) - 1)
	})

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(shielded), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	frag, err := html.ParseFragment(&buf, &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}

	var out []*quest.Node
	for _, n := range frag {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		out = append(out, mc.convert(n)...)
	}
	return out, nil
}

// renderInline как renderMarkdown, но без обертки <p>.
func renderInline(text string, line int, log *Log) ([]*quest.Node, error) {
	blocks, err := renderMarkdown(text, line, log)
	if err != nil {
		return nil, err
	}
	var out []*quest.Node
	for _, b := range blocks {
		if b.Kind() == quest.KindParagraph {
			out = append(out, b.Children()...)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func placeholder(i int) string {
	return fmt.Sprintf("QOPX%dXPOQ", i)
}

func (mc *markupConverter) convert(n *html.Node) []*quest.Node {
	switch n.Type {
	case html.TextNode:
		return []*quest.Node{quest.NewText(mc.restore(n.Data))}
	case html.ElementNode:
	default:
		return nil
	}

	var children []*quest.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, mc.convert(c)...)
	}

	tag := n.Data
	if alias, ok := tagAliases[tag]; ok {
		tag = alias
	}
	if quest.KindOf(tag) == quest.KindUnknown {
		mc.warn("<" + tag + ">")
		if n.DataAtom == atom.Br {
			return []*quest.Node{quest.NewText("\n")}
		}
		return children
	}

	attrs := make([]quest.Attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		if strings.HasPrefix(a.Key, "on") && a.Key != "on" {
			mc.warn(a.Key)
			continue
		}
		attrs = append(attrs, quest.Attr{Key: a.Key, Value: mc.restore(a.Val)})
	}
	return []*quest.Node{quest.NewElement(tag, mc.line, attrs, children...)}
}
