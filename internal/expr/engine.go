// Package expr вычисляет язык выражений для условий квеста
// и встроенных шаблонов.
package expr

import "errors"

var (
	ErrParse = errors.New("expression parse failed")
	ErrEval  = errors.New("expression evaluation failed")
)

// Program - разобранное выражение, готовое к вычислению.
type Program struct {
	src         string
	chunk       string
	assignsLast bool
}

// Source возвращает исходный текст выражения.
func (p *Program) Source() string { return p.src }

// AssignsLast сообщает, что последний оператор ничего не возвращает
// (присваивание и т.п.).
func (p *Program) AssignsLast() bool { return p.assignsLast }

// Evaluator - то, что нужно интерпретатору от языка выражений.
type Evaluator interface {
	Parse(src string) (*Program, error)
	// Eval выполняет программу над scope, присваивания пишутся в scope.
	Eval(p *Program, scope Scope) (any, error)
}

// Evaluate разбирает и вычисляет src за один шаг.
func Evaluate(e Evaluator, src string, scope Scope) (any, error) {
	p, err := e.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Eval(p, scope)
}

// IsAssignmentStatement сообщает, заканчивается ли программа присваиванием.
func IsAssignmentStatement(p *Program) bool {
	return p != nil && p.assignsLast
}
