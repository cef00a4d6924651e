// Package interpreter обходит скомпилированный документ квеста так, как
// это делает игрок: условия, шаблоны, выборы, события и бои.
package interpreter

import (
	"strings"

	"golang.org/x/net/html"

	"quest-server/internal/encounters"
	"quest-server/internal/expr"
	"quest-server/internal/quest"
)

// Encounters ищет противника в статической таблице по точному имени.
type Encounters interface {
	Lookup(name string) (encounters.Encounter, bool)
}

// Interpreter не хранит состояние прохождения. Потокобезопасен, если
// потокобезопасны вычислитель и таблица противников.
type Interpreter struct {
	eval       expr.Evaluator
	encounters Encounters
}

func New(eval expr.Evaluator, encounters Encounters) *Interpreter {
	return &Interpreter{eval: eval, encounters: encounters}
}

// Validate запускает структурные проверки документа.
func (in *Interpreter) Validate(root *quest.Node) error {
	return quest.Validate(root)
}

// IsEnabled вычисляет условие "if" узла на копии scope.
// Комментарии всегда выключены, ошибка вычисления тоже выключает узел.
func (in *Interpreter) IsEnabled(n *quest.Node, scope expr.Scope) bool {
	if n.Kind() == quest.KindComment {
		return false
	}
	cond := n.AttrValue("if")
	if cond == "" {
		return true
	}
	v, err := expr.Evaluate(in.eval, cond, scope.Clone())
	if err != nil {
		return false
	}
	return expr.Truthy(v)
}

type opOutcome int

const (
	opUnparsed opOutcome = iota
	opSilent
	opValue
)

// evalOp выполняет тело одной вставки {{op}}. Значение есть только у
// программы без ошибок, которая не заканчивается присваиванием.
func (in *Interpreter) evalOp(op string, scope expr.Scope) (string, opOutcome) {
	p, err := in.eval.Parse(html.UnescapeString(op))
	if err != nil {
		return "", opUnparsed
	}
	v, err := in.eval.Eval(p, scope)
	if err != nil || expr.IsAssignmentStatement(p) {
		return "", opSilent
	}
	v = expr.Unwrap(v)
	if v == nil {
		return "", opSilent
	}
	return expr.Format(v), opValue
}

// RenderTemplate заменяет каждую вставку {{op}} ее значением.
// Вставка с ошибкой разбора остается текстом как есть. Ошибка вычисления
// или присваивание в конце дают пустую строку. Присваивания меняют scope.
func (in *Interpreter) RenderTemplate(content string, scope expr.Scope) string {
	var sb strings.Builder
	for _, seg := range splitTemplate(content) {
		if !seg.op {
			sb.WriteString(seg.text)
			continue
		}
		val, outcome := in.evalOp(seg.text[2:len(seg.text)-2], scope)
		switch outcome {
		case opUnparsed:
			sb.WriteString(seg.text)
		case opValue:
			sb.WriteString(val)
		}
	}
	result := sb.String()
	if content != result && result == "<p></p>" {
		return ""
	}
	return result
}

type segment struct {
	text string
	op   bool
}

// splitTemplate режет content на текст и вставки {{op}}.
// Вставка не пустая и заканчивается на первом "}}", непарная "{{" - текст.
func splitTemplate(content string) []segment {
	var segs []segment
	for i := 0; i < len(content); {
		if strings.HasPrefix(content[i:], "{{") && i+3 <= len(content) {
			if end := strings.Index(content[i+3:], "}}"); end >= 0 {
				stop := i + 3 + end + 2
				segs = append(segs, segment{text: content[i:stop], op: true})
				i = stop
				continue
			}
		}
		next := strings.Index(content[i+1:], "{{")
		stop := len(content)
		if next >= 0 {
			stop = i + 1 + next
		}
		segs = append(segs, segment{text: content[i:stop]})
		i = stop
	}
	return segs
}

// firstOp возвращает тело первой вставки {{op}} в s.
func firstOp(s string) (string, bool) {
	start := strings.Index(s, "{{")
	if start < 0 || start+3 > len(s) {
		return "", false
	}
	end := strings.Index(s[start+3:], "}}")
	if end < 0 {
		return "", false
	}
	return s[start+2 : start+3+end], true
}
