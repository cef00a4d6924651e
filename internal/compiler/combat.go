package compiler

import (
	"encoding/json"
	"strconv"
	"strings"

	"quest-server/internal/quest"
)

// headerEnemy - элемент массива "enemies" в заголовке боя.
type headerEnemy struct {
	Text    string          `json:"text"`
	Visible string          `json:"visible"`
	Tier    json.RawMessage `json:"tier"`
}

// Combat компилирует карточку боя: сначала противники, затем события
// в порядке документа. Отсутствие противников или события win/lose
// попадает в лог и заменяется значением по умолчанию.
func Combat(blocks []*Block, log *Log) *quest.Node {
	first := blocks[0]
	var (
		attrs   []quest.Attr
		enemies []*quest.Node
		events  []*quest.Node
		pending *pendingBullet
		pendIdx = -1
	)

	start := 0
	if idx := first.firstContentLine(); idx >= 0 {
		line := first.StartLine + idx
		h, err := parseCardHeader(first.Lines[idx])
		if err != nil || !strings.EqualFold(h.Title, "combat") {
			log.Err(line, "could not parse block header", CodeBadHeader)
		} else {
			if h.ID != "" {
				attrs = append(attrs, quest.Attr{Key: "id", Value: h.ID})
			}
			attrs = append(attrs, toAttrs(h.JSON, "enemies")...)
			enemies = append(enemies, headerEnemies(h, line, log)...)
		}
		start = idx + 1
	}

	for bi, b := range blocks {
		if b.Render != nil {
			if pending != nil && pending.inner == nil {
				events[pendIdx] = quest.Event(pending.attrs, pending.line, b.Render...)
				pending.inner = b.Render
				pending = nil
				continue
			}
			log.Err(b.StartLine, "found inner block of combat block without an event bullet", CodeCombatInnerNoEvent)
			continue
		}
		from := 0
		if bi == 0 {
			from = start
		}
		for i := from; i < len(b.Lines); i++ {
			n := b.StartLine + i
			text := strings.TrimSpace(b.Lines[i])
			switch {
			case text == "":
				continue
			case strings.HasPrefix(text, "//"):
				events = append(events, quest.Comment(strings.TrimSpace(text[2:]), n))
				continue
			case !isBullet(text):
				log.Err(n, "lines within combat block must be events or enemies, not freestanding text", CodeCombatFreeText)
				continue
			}
			pending = nil

			bl, err := parseBullet(text)
			if err != nil {
				log.Err(n, "failed to parse bulleted line (check your JSON)", CodeBadBullet)
				log.Err(n, "lines within combat block must be events or enemies, not freestanding text", CodeCombatFreeText)
				continue
			}
			if bl.Marker == '-' {
				enemies = append(enemies, bulletEnemy(bl, n, log))
				continue
			}
			if bl.Event == "" {
				log.Err(n, "lines within combat block must be events or enemies, not freestanding text", CodeCombatFreeText)
				continue
			}
			ev := []quest.Attr{{Key: "on", Value: bl.Event}}
			pending = &pendingBullet{attrs: append(ev, bl.condAttrs()...), line: n}
			pendIdx = len(events)
			events = append(events, quest.Event(pending.attrs, n))
		}
	}

	var wins, loses int
	for _, e := range events {
		switch e.AttrValue("on") {
		case "win":
			wins++
		case "lose":
			loses++
		}
	}
	if len(enemies) == 0 {
		log.Err(first.StartLine, "combat card has no enemies listed", CodeNoEnemies)
		enemies = append(enemies, quest.Enemy("UNKNOWN", nil, quest.NoLine))
	}
	if wins == 0 {
		log.Err(first.StartLine, `combat card must have "on win" event`, CodeMissingOutcome)
		events = append(events, defaultOutcome("win"))
	}
	if loses == 0 {
		log.Err(first.StartLine, `combat card must have "on lose" event`, CodeMissingOutcome)
		events = append(events, defaultOutcome("lose"))
	}

	node := quest.Combat(attrs, first.StartLine, append(enemies, events...)...)
	first.Render = []*quest.Node{node}
	return node
}

func defaultOutcome(on string) *quest.Node {
	return quest.Event([]quest.Attr{{Key: "on", Value: on}}, quest.NoLine, quest.Trigger("end", nil, quest.NoLine))
}

func headerEnemies(h header, line int, log *Log) []*quest.Node {
	var raw json.RawMessage
	for _, a := range h.JSON {
		if a.Key == "enemies" {
			raw = a.Raw
		}
	}
	if raw == nil {
		return nil
	}
	var list []headerEnemy
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Err(line, "could not parse block header", CodeBadHeader)
		return nil
	}
	out := make([]*quest.Node, 0, len(list))
	for _, e := range list {
		var attrs []quest.Attr
		if e.Visible != "" {
			attrs = append(attrs, quest.Attr{Key: "if", Value: e.Visible})
		}
		if e.Tier != nil {
			if tier, ok := parseTier(e.Tier); ok {
				attrs = append(attrs, quest.Attr{Key: "tier", Value: tier})
			} else {
				log.Err(line, "tier must be a positive number", CodeBadTier)
			}
		}
		out = append(out, quest.Enemy(e.Text, attrs, line))
	}
	return out
}

func bulletEnemy(bl bullet, n int, log *Log) *quest.Node {
	name := bl.Text
	if bl.Event != "" {
		name = "on " + bl.Event
	}
	var attrs []quest.Attr
	if bl.HasCond {
		attrs = append(attrs, quest.Attr{Key: "if", Value: bl.Cond})
	}
	for _, a := range bl.JSON {
		if a.Key != "tier" {
			attrs = append(attrs, quest.Attr{Key: a.Key, Value: a.String()})
			continue
		}
		tier, ok := parseTier(a.Raw)
		if !ok {
			log.Err(n, "tier must be a positive number", CodeBadTier)
			continue
		}
		attrs = append(attrs, quest.Attr{Key: "tier", Value: tier})
	}
	return quest.Enemy(name, attrs, n)
}

func parseTier(raw json.RawMessage) (string, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f <= 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
