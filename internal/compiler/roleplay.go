package compiler

import (
	"errors"
	"strings"

	"quest-server/internal/quest"
)

// Roleplay компилирует карточку roleplay. blocks[0] открывает карточку,
// следующие блоки либо продолжают ее на том же отступе, либо несут
// готовые карточки пункта выбора перед ними.
func Roleplay(blocks []*Block, log *Log) *quest.Node {
	first := blocks[0]
	attrs := []quest.Attr{{Key: "title", Value: ""}}
	start := 0
	if idx := first.firstContentLine(); idx >= 0 {
		h, err := parseCardHeader(first.Lines[idx])
		switch {
		case err == nil:
			attrs = h.attrs()
			start = idx + 1
		case errors.Is(err, errBadJSON):
			log.Err(first.StartLine+idx, "could not parse block header", CodeBadHeader)
			start = idx + 1
		}
	}

	rb := &roleplayBody{log: log}
	for bi, b := range blocks {
		if b.Render != nil {
			rb.inner(b)
			continue
		}
		from := 0
		if bi == 0 {
			from = start
		}
		for i := from; i < len(b.Lines); i++ {
			rb.line(b, b.StartLine+i, b.Lines[i])
		}
	}
	rb.flush()

	node := quest.Roleplay(attrs, first.StartLine, rb.nodes()...)
	first.Render = []*quest.Node{node}
	return node
}

type roleplayItem struct {
	node   *quest.Node
	choice *pendingBullet
}

type pendingBullet struct {
	attrs []quest.Attr
	line  int
	inner []*quest.Node
}

type roleplayBody struct {
	log          *Log
	items        []roleplayItem
	para         []string
	paraLine     int
	pending      *pendingBullet
	discardInner bool
}

func (rb *roleplayBody) line(b *Block, n int, text string) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		rb.flush()
	case strings.HasPrefix(trimmed, "*") && isBullet(trimmed):
		rb.flush()
		rb.bullet(b, n, trimmed)
	case strings.HasPrefix(trimmed, "> "), trimmed == ">":
		rb.flush()
		rb.pending = nil
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		inline, err := renderInline(body, n, rb.log)
		if err != nil {
			inline = []*quest.Node{quest.NewText(body)}
		}
		rb.items = append(rb.items, roleplayItem{node: quest.Instruction(n, inline...)})
	case strings.HasPrefix(trimmed, "//"):
		rb.flush()
		rb.items = append(rb.items, roleplayItem{node: quest.Comment(strings.TrimSpace(trimmed[2:]), n)})
	default:
		rb.pending = nil
		if len(rb.para) == 0 {
			rb.paraLine = n
		}
		rb.para = append(rb.para, trimmed)
	}
}

func (rb *roleplayBody) bullet(b *Block, n int, text string) {
	bl, err := parseBullet(text)
	if err != nil {
		if errors.Is(err, errBadJSON) {
			rb.log.Err(n, "failed to parse bulleted line (check your JSON)", CodeBadBullet)
		}
		rb.log.Err(b.StartLine, "choice missing title", CodeChoiceNoTitle)
		rb.addChoice(n, []quest.Attr{{Key: "text", Value: ""}, {Key: "if", Value: "false"}})
		return
	}
	if bl.Event != "" {
		rb.log.Err(n, "roleplay cards cannot contain event bullets", CodeRoleplayEvent)
		rb.pending = nil
		rb.discardInner = true
		return
	}
	if bl.Text == "" {
		rb.log.Err(b.StartLine, "choice missing title", CodeChoiceNoTitle)
	}
	attrs := append([]quest.Attr{{Key: "text", Value: bl.Text}}, bl.condAttrs()...)
	rb.addChoice(n, attrs)
}

func (rb *roleplayBody) addChoice(n int, attrs []quest.Attr) {
	c := &pendingBullet{attrs: attrs, line: n}
	rb.items = append(rb.items, roleplayItem{choice: c})
	rb.pending = c
	rb.discardInner = false
}

func (rb *roleplayBody) inner(b *Block) {
	rb.flush()
	switch {
	case rb.pending != nil && rb.pending.inner == nil:
		rb.pending.inner = b.Render
		rb.pending = nil
	case rb.discardInner:
		rb.discardInner = false
	default:
		rb.log.Err(b.StartLine, "found inner block of roleplay block without a choice bullet", CodeRoleplayInnerNoChoice)
	}
}

func (rb *roleplayBody) flush() {
	if len(rb.para) == 0 {
		return
	}
	text := strings.Join(rb.para, "\n")
	nodes, err := renderMarkdown(text, rb.paraLine, rb.log)
	if err != nil {
		nodes = []*quest.Node{quest.Paragraph(rb.paraLine, quest.NewText(text))}
	}
	for _, n := range nodes {
		rb.items = append(rb.items, roleplayItem{node: n})
	}
	rb.para = nil
}

func (rb *roleplayBody) nodes() []*quest.Node {
	out := make([]*quest.Node, 0, len(rb.items))
	for _, it := range rb.items {
		if it.choice != nil {
			out = append(out, quest.Choice(it.choice.attrs, it.choice.line, it.choice.inner...))
			continue
		}
		out = append(out, it.node)
	}
	return out
}
