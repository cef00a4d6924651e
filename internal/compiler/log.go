package compiler

import (
	"fmt"
	"strings"
)

// Коды справки, которые печатаются с каждой диагностикой.
const (
	CodeBadBullet             = "412"
	CodeBadHeader             = "413"
	CodeNoEnemies             = "414"
	CodeCombatInnerNoEvent    = "415"
	CodeCombatFreeText        = "416"
	CodeMissingOutcome        = "417"
	CodeBadTier               = "418"
	CodeUnsupportedMarkup     = "419"
	CodeBadQuestAttr          = "420"
	CodeRoleplayInnerNoChoice = "421"
	CodeRoleplayEvent         = "422"
	CodeTriggerExtra          = "423"
	CodeNoQuestHeader         = "424"
	CodeChoiceNoTitle         = "428"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Entry - одна диагностика с номером строки.
type Entry struct {
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s L%d:\n%s\nURL: %s", e.Severity, e.Line, e.Message, e.Code)
}

// Log собирает диагностики за весь проход компиляции. Нулевое значение
// готово к работе. Не потокобезопасен.
type Log struct {
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Err(line int, message, code string) {
	l.entries = append(l.entries, Entry{Severity: SeverityError, Line: line, Message: message, Code: code})
}

func (l *Log) Warn(line int, message, code string) {
	l.entries = append(l.entries, Entry{Severity: SeverityWarning, Line: line, Message: message, Code: code})
}

// Entries возвращает диагностики в порядке появления.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int { return len(l.entries) }

// HasErrors сообщает, есть ли в логе хоть одна ошибка.
func (l *Log) HasErrors() bool {
	for _, e := range l.entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Finalize собирает отчет: по абзацу на диагностику через пустую строку.
// Пустой лог дает "".
func (l *Log) Finalize() string {
	parts := make([]string, len(l.entries))
	for i, e := range l.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n\n")
}
