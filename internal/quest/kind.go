package quest

import "strings"

// Kind - закрытый набор видов узлов документа квеста.
// Теги вне набора компилируются в KindUnknown и сохраняют исходное имя.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindQuest
	KindRoleplay
	KindCombat
	KindTrigger
	KindChoice
	KindEvent
	KindComment
	KindInstruction
	KindEnemy
	KindParagraph
	KindDiv
	KindSpan
	KindBold
	KindItalic
	KindEmphasis
)

var kindTags = map[Kind]string{
	KindQuest:       "quest",
	KindRoleplay:    "roleplay",
	KindCombat:      "combat",
	KindTrigger:     "trigger",
	KindChoice:      "choice",
	KindEvent:       "event",
	KindComment:     "comment",
	KindInstruction: "instruction",
	KindEnemy:       "e",
	KindParagraph:   "p",
	KindDiv:         "div",
	KindSpan:        "span",
	KindBold:        "b",
	KindItalic:      "i",
	KindEmphasis:    "em",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// KindOf возвращает Kind по имени тега без учета регистра.
func KindOf(tag string) Kind {
	if k, ok := tagKinds[strings.ToLower(tag)]; ok {
		return k
	}
	return KindUnknown
}

// Tag возвращает каноничное имя тега ("" для текста и неизвестных).
func (k Kind) Tag() string {
	return kindTags[k]
}

func (k Kind) String() string {
	switch k {
	case KindText:
		return "#text"
	case KindUnknown:
		return "unknown"
	}
	return kindTags[k]
}

// IsCard сообщает, является ли вид карточкой с маркером data-line.
func (k Kind) IsCard() bool {
	switch k {
	case KindQuest, KindRoleplay, KindCombat, KindTrigger:
		return true
	}
	return false
}

// IsInline сообщает, является ли вид строчной разметкой.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindBold, KindItalic, KindEmphasis, KindSpan:
		return true
	}
	return false
}
