package compiler

import (
	"strings"

	"quest-server/internal/quest"
)

// Trigger компилирует карточку "**{{cond}} text**". Триггер занимает
// одну строку, все после нее попадает в лог.
func Trigger(blocks []*Block, log *Log) *quest.Node {
	first := blocks[0]
	text := "end"
	var attrs []quest.Attr

	idx := first.firstContentLine()
	if idx < 0 || !isTriggerLine(first.Lines[idx]) {
		log.Err(first.StartLine+max(idx, 0), "could not parse block header", CodeBadHeader)
	} else {
		body := strings.TrimSpace(first.Lines[idx])
		body = strings.TrimSpace(body[2 : len(body)-2])
		if strings.HasPrefix(body, "{{") {
			if end := strings.Index(body, "}}"); end >= 0 {
				attrs = append(attrs, quest.Attr{Key: "if", Value: strings.TrimSpace(body[2:end])})
				body = strings.TrimSpace(body[end+2:])
			}
		}
		if body == "" {
			log.Err(first.StartLine+idx, "could not parse block header", CodeBadHeader)
		} else {
			text = body
		}
	}

	reported := false
	extra := func(line int) {
		if !reported {
			log.Err(line, "trigger cards cannot contain additional content", CodeTriggerExtra)
			reported = true
		}
	}
	for i := idx + 1; idx >= 0 && i < len(first.Lines); i++ {
		if strings.TrimSpace(first.Lines[i]) != "" {
			extra(first.StartLine + i)
		}
	}
	for _, b := range blocks[1:] {
		extra(b.StartLine)
	}

	node := quest.Trigger(text, attrs, first.StartLine)
	first.Render = []*quest.Node{node}
	return node
}
