package quest

import "strconv"

// DataLineAttr хранит строку исходника карточки в разметке.
const DataLineAttr = "data-line"

func cardAttrs(attrs []Attr, line int) []Attr {
	out := append([]Attr(nil), attrs...)
	if line != NoLine {
		out = append(out, Attr{Key: DataLineAttr, Value: strconv.Itoa(line)})
	}
	return out
}

// Quest создает корень документа.
func Quest(attrs []Attr, line int, cards ...*Node) *Node {
	return New(KindQuest, line, cardAttrs(attrs, line), cards...)
}

// Roleplay создает карточку roleplay из уже скомпилированного тела.
func Roleplay(attrs []Attr, line int, body ...*Node) *Node {
	return New(KindRoleplay, line, cardAttrs(attrs, line), body...)
}

// RoleplayText создает карточку roleplay, по абзацу на строку.
func RoleplayText(attrs []Attr, line int, paragraphs ...string) *Node {
	body := make([]*Node, 0, len(paragraphs))
	for _, p := range paragraphs {
		body = append(body, Paragraph(line, NewText(p)))
	}
	return Roleplay(attrs, line, body...)
}

func Combat(attrs []Attr, line int, children ...*Node) *Node {
	return New(KindCombat, line, cardAttrs(attrs, line), children...)
}

func Trigger(text string, attrs []Attr, line int) *Node {
	return New(KindTrigger, line, cardAttrs(attrs, line), NewText(text))
}

// Choice создает пункт выбора с карточками, к которым он ведет.
// У выбора с goto их нет.
func Choice(attrs []Attr, line int, inner ...*Node) *Node {
	return New(KindChoice, line, attrs, inner...)
}

// Event создает пункт события с карточками, к которым оно ведет.
func Event(attrs []Attr, line int, inner ...*Node) *Node {
	return New(KindEvent, line, attrs, inner...)
}

// Enemy создает запись противника в бою.
func Enemy(name string, attrs []Attr, line int) *Node {
	return New(KindEnemy, line, attrs, NewText(name))
}

func Paragraph(line int, inline ...*Node) *Node {
	return New(KindParagraph, line, nil, inline...)
}

func Comment(text string, line int) *Node {
	return New(KindComment, line, nil, NewText(text))
}

func Instruction(line int, inline ...*Node) *Node {
	return New(KindInstruction, line, nil, inline...)
}
