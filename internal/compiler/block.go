// Package compiler превращает исходный текст квеста в дерево документа.
package compiler

import (
	"strings"

	"quest-server/internal/quest"
)

// Block - подряд идущие строки исходника с одним отступом.
// Отступ блока из Lines уже срезан. Render хранит скомпилированный
// фрагмент, когда блок уже разобран.
type Block struct {
	StartLine int
	Indent    int
	Lines     []string
	Render    []*quest.Node
}

const tabWidth = 2

// Segment группирует строки исходника в блоки. Новый блок начинается,
// когда меняется отступ, или с заголовка карточки, стоящего после пустой
// строки либо в начале файла. Пустые строки остаются в текущем блоке.
func Segment(source string) []*Block {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	var (
		blocks []*Block
		cur    *Block
	)
	afterBlank := true
	for i, raw := range strings.Split(source, "\n") {
		if strings.TrimSpace(raw) == "" {
			if cur != nil {
				cur.Lines = append(cur.Lines, "")
			}
			afterBlank = true
			continue
		}
		indent, body := splitIndent(raw)
		header := afterBlank && isCardHeader(body)
		afterBlank = false
		if cur == nil || indent != cur.Indent || header {
			cur = &Block{StartLine: i, Indent: indent}
			blocks = append(blocks, cur)
		}
		cur.Lines = append(cur.Lines, strings.TrimRight(body, " \t"))
	}
	return blocks
}

func splitIndent(line string) (int, string) {
	width := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			return width, line[i:]
		}
	}
	return width, ""
}

// firstContentLine возвращает индекс первой непустой строки b.
func (b *Block) firstContentLine() int {
	for i, l := range b.Lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return -1
}
