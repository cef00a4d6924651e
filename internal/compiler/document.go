package compiler

import (
	"fmt"
	"strings"

	"quest-server/internal/quest"
)

// Quest компилирует заголовок "#Title" и строки "key: value" в пустой
// корень квеста.
func Quest(block *Block, log *Log) *quest.Node {
	node := quest.Quest(questAttrs(block, log), block.StartLine)
	block.Render = []*quest.Node{node}
	return node
}

func questAttrs(block *Block, log *Log) []quest.Attr {
	attrs := []quest.Attr{{Key: "title", Value: ""}}
	idx := block.firstContentLine()
	if idx < 0 {
		return attrs
	}
	if head := strings.TrimSpace(block.Lines[idx]); isQuestHeaderLine(head) {
		attrs[0].Value = strings.TrimSpace(strings.TrimLeft(head, "#"))
	} else {
		log.Err(block.StartLine+idx, "could not parse block header", CodeBadHeader)
	}
	for i := idx + 1; i < len(block.Lines); i++ {
		line := strings.TrimSpace(block.Lines[i])
		if line == "" {
			continue
		}
		m := questAttrRe.FindStringSubmatch(line)
		if m == nil {
			log.Err(block.StartLine+i, fmt.Sprintf("invalid quest attribute line %q", line), CodeBadQuestAttr)
			continue
		}
		attrs = append(attrs, quest.Attr{Key: strings.ToLower(m[1]), Value: strings.TrimSpace(m[2])})
	}
	return attrs
}

// Document компилирует файл квеста целиком. Файл начинается с заголовка
// квеста, дальше блоки собираются в карточки. Блоки с отступом становятся
// карточками пункта над ними.
func Document(source string, log *Log) *quest.Node {
	blocks := Segment(source)

	attrs := []quest.Attr{{Key: "title", Value: ""}}
	line := 0
	if len(blocks) > 0 && isQuestHeaderLine(blocks[0].Lines[0]) {
		head, rest := splitAtBlank(blocks[0])
		attrs = questAttrs(head, log)
		line = head.StartLine
		blocks = blocks[1:]
		if rest != nil {
			blocks = append([]*Block{rest}, blocks...)
		}
	} else {
		log.Err(0, "quest must begin with a #Title header", CodeNoQuestHeader)
	}

	return quest.Quest(attrs, line, compileLevel(blocks, log)...)
}

// splitAtBlank отделяет строки заголовка от тела после первой пустой строки.
func splitAtBlank(b *Block) (*Block, *Block) {
	for i, l := range b.Lines {
		if strings.TrimSpace(l) != "" {
			continue
		}
		for j := i + 1; j < len(b.Lines); j++ {
			if strings.TrimSpace(b.Lines[j]) != "" {
				head := &Block{StartLine: b.StartLine, Indent: b.Indent, Lines: b.Lines[:i]}
				rest := &Block{StartLine: b.StartLine + j, Indent: b.Indent, Lines: b.Lines[j:]}
				return head, rest
			}
		}
		break
	}
	return b, nil
}

// compileLevel компилирует в карточки блоки с наименьшим отступом.
// Более глубокие блоки компилируются рекурсивно и отдаются предыдущей
// карточке уже готовыми.
func compileLevel(blocks []*Block, log *Log) []*quest.Node {
	if len(blocks) == 0 {
		return nil
	}
	level := blocks[0].Indent
	for _, b := range blocks {
		level = min(level, b.Indent)
	}

	var groups [][]*Block
	for i := 0; i < len(blocks); {
		b := blocks[i]
		if b.Indent > level {
			j := i
			for j < len(blocks) && blocks[j].Indent > level {
				j++
			}
			inner := &Block{StartLine: b.StartLine, Indent: b.Indent, Render: compileLevel(blocks[i:j], log)}
			if len(groups) == 0 {
				groups = append(groups, []*Block{inner})
			} else {
				groups[len(groups)-1] = append(groups[len(groups)-1], inner)
			}
			i = j
			continue
		}
		if len(groups) == 0 || isCardHeader(b.Lines[0]) {
			groups = append(groups, []*Block{b})
		} else {
			groups[len(groups)-1] = append(groups[len(groups)-1], b)
		}
		i++
	}

	var cards []*quest.Node
	for _, g := range groups {
		cards = append(cards, compileCard(g, log)...)
	}
	return cards
}

func compileCard(group []*Block, log *Log) []*quest.Node {
	first := group[0]
	if first.Render != nil {
		return first.Render
	}
	head := first.Lines[first.firstContentLine()]
	switch {
	case isTriggerLine(head):
		return []*quest.Node{Trigger(group, log)}
	case isCombatHeader(head):
		return []*quest.Node{Combat(group, log)}
	case isQuestHeaderLine(head):
		log.Err(first.StartLine, "quest header must be the first line of the file", CodeBadHeader)
		return nil
	}
	return []*quest.Node{Roleplay(group, log)}
}
