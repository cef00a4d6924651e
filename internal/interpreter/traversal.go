package interpreter

import (
	"fmt"

	"quest-server/internal/expr"
	"quest-server/internal/quest"
)

// Init загружает первую карточку квеста.
func (in *Interpreter) Init(root *quest.Node) (*quest.Node, error) {
	cards := root.Elements()
	if len(cards) == 0 {
		return nil, ErrEmptyQuest
	}
	return in.Load(cards[0])
}

// Load двигается от n к ближайшему узлу-карточке (roleplay, бой, триггер).
// Комментарий пропускается. Выбор и событие ведут в первого ребенка
// или по своему goto. nil означает, что квест закончился.
func (in *Interpreter) Load(n *quest.Node) (*quest.Node, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind() {
	case quest.KindComment:
		return in.Load(FindNextSibling(n))
	case quest.KindChoice, quest.KindEvent:
		return in.loadControl(n)
	case quest.KindCombat, quest.KindRoleplay, quest.KindTrigger:
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownNode, n.Tag())
}

func (in *Interpreter) loadControl(n *quest.Node) (*quest.Node, error) {
	children := n.Elements()
	if target := n.AttrValue("goto"); len(children) == 0 && target != "" {
		dest := n.Root().FindByID(target)
		if dest == nil {
			return nil, fmt.Errorf("%w: %q", ErrGotoTargetMissing, target)
		}
		return in.Load(dest)
	}

	hasCard := false
	for _, c := range children {
		switch c.Kind() {
		case quest.KindEvent, quest.KindChoice:
			return nil, fmt.Errorf("%w (line %d)", ErrInvalidControlNode, n.Line())
		case quest.KindCombat, quest.KindTrigger, quest.KindRoleplay:
			hasCard = true
		}
	}
	if !hasCard {
		return nil, fmt.Errorf("%w (line %d)", ErrNoControlChild, n.Line())
	}
	return in.Load(children[0])
}

// FindNextSibling возвращает следующий элемент после n, не являющийся
// управляющим, поднимаясь к предкам. За корнем возвращает nil.
func FindNextSibling(n *quest.Node) *quest.Node {
	for n != nil {
		s := n.NextElement()
		if s != nil && !isControl(s) {
			return s
		}
		if s != nil {
			n = s
		} else {
			n = n.Parent()
		}
	}
	return nil
}

func isControl(n *quest.Node) bool {
	switch n.Kind() {
	case quest.KindChoice, quest.KindEvent:
		return true
	}
	return n.AttrValue("on") != ""
}

// HandleEvent загружает первого включенного ребенка parent для event.
func (in *Interpreter) HandleEvent(parent *quest.Node, event string, scope expr.Scope) (*quest.Node, error) {
	for _, c := range parent.Elements() {
		if c.AttrValue("on") == event && in.IsEnabled(c, scope) {
			return in.Load(c)
		}
	}
	return nil, fmt.Errorf("%w: on=%q", ErrNoMatchingEvent, event)
}

// HandleChoice загружает выбор с номером idx среди всех выборов parent,
// включенных и нет. Если такого нет (кнопка Next/End), идет к узлу после parent.
func (in *Interpreter) HandleChoice(parent *quest.Node, idx int) (*quest.Node, error) {
	ordinal := -1
	for _, c := range parent.Elements() {
		if c.Kind() != quest.KindChoice {
			continue
		}
		ordinal++
		if ordinal == idx {
			return in.Load(c)
		}
	}

	// Компилятор не создает <end>, он бывает только в разметке,
	// написанной руками.
	for _, c := range parent.Elements() {
		if c.Tag() == "end" {
			return nil, nil
		}
	}
	return in.Load(FindNextSibling(parent))
}
