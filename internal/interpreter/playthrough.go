package interpreter

import (
	"fmt"
	"strings"

	"quest-server/internal/expr"
	"quest-server/internal/quest"
)

const maxTriggerHops = 64

// State - сериализуемое состояние прохождения. Position - путь из индексов
// детей от корня квеста до текущей карточки.
type State struct {
	Position []int      `json:"position"`
	Scope    expr.Scope `json:"scope"`
	Finished bool       `json:"finished"`
}

// Card - то, что игрок видит на текущей позиции.
type Card struct {
	Kind     CardKind        `json:"kind"`
	Roleplay *RoleplayResult `json:"roleplay,omitempty"`
	Combat   *CombatResult   `json:"combat,omitempty"`
	Finished bool            `json:"finished"`
}

// Playthrough ведет одного игрока по общему дереву квеста.
// Scope принадлежит прохождению, дерево не меняется.
type Playthrough struct {
	in    *Interpreter
	root  *quest.Node
	node  *quest.Node
	state State
}

// Start проверяет квест и переходит к первой карточке.
func (in *Interpreter) Start(root *quest.Node, scope expr.Scope) (*Playthrough, error) {
	if err := in.Validate(root); err != nil {
		return nil, err
	}
	first, err := in.Init(root)
	if err != nil {
		return nil, err
	}
	p := &Playthrough{in: in, root: root, state: State{Scope: scope.Clone()}}
	if err := p.settle(first, p.state.Scope); err != nil {
		return nil, err
	}
	return p, nil
}

// Resume восстанавливает прохождение из сохраненного состояния.
func (in *Interpreter) Resume(root *quest.Node, st State) (*Playthrough, error) {
	p := &Playthrough{in: in, root: root, state: st}
	if p.state.Scope == nil {
		p.state.Scope = expr.Scope{}
	}
	if st.Finished {
		return p, nil
	}
	n, ok := root.At(st.Position)
	if !ok || Classify(n) == CardNone {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, st.Position)
	}
	p.node = n
	return p, nil
}

// State возвращает копию состояния.
func (p *Playthrough) State() State {
	st := p.state
	st.Position = append([]int(nil), p.state.Position...)
	st.Scope = p.state.Scope.Clone()
	return st
}

// Card разрешает текущую карточку, не двигаясь дальше.
func (p *Playthrough) Card() (*Card, error) {
	if p.state.Finished {
		return &Card{Finished: true}, nil
	}
	switch Classify(p.node) {
	case CardRoleplay:
		rp, err := p.in.ResolveRoleplay(p.node, p.state.Scope)
		if err != nil {
			return nil, err
		}
		return &Card{Kind: CardRoleplay, Roleplay: rp}, nil
	case CardCombat:
		cb, err := p.in.ResolveCombat(p.node, p.state.Scope)
		if err != nil {
			return nil, err
		}
		return &Card{Kind: CardCombat, Combat: cb}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownNode, p.node.Tag())
}

// Choose выбирает один из вариантов текущей карточки roleplay.
// Присваивания из шаблонов карточки переходят дальше.
func (p *Playthrough) Choose(idx int) (*Card, error) {
	if p.state.Finished {
		return nil, ErrQuestFinished
	}
	if Classify(p.node) != CardRoleplay {
		return nil, ErrWrongCard
	}
	rp, err := p.in.ResolveRoleplay(p.node, p.state.Scope)
	if err != nil {
		return nil, err
	}
	offered := false
	for _, c := range rp.Choices {
		if c.Idx == idx {
			offered = true
			break
		}
	}
	if !offered {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChoice, idx)
	}

	next, err := p.in.HandleChoice(p.node, idx)
	if err != nil {
		return nil, err
	}
	if err := p.settle(next, rp.Scope); err != nil {
		return nil, err
	}
	return p.Card()
}

// Fire передает исход боя, например "win" или "lose".
func (p *Playthrough) Fire(event string) (*Card, error) {
	if p.state.Finished {
		return nil, ErrQuestFinished
	}
	if Classify(p.node) != CardCombat {
		return nil, ErrWrongCard
	}
	next, err := p.in.HandleEvent(p.node, event, p.state.Scope)
	if err != nil {
		return nil, err
	}
	if err := p.settle(next, p.state.Scope); err != nil {
		return nil, err
	}
	return p.Card()
}

// settle идет по триггерам до карточки roleplay или боя либо до конца
// квеста и только потом фиксирует позицию и scope. При ошибке прохождение
// не меняется.
func (p *Playthrough) settle(n *quest.Node, scope expr.Scope) error {
	for hops := 0; ; hops++ {
		if hops > maxTriggerHops {
			return ErrTriggerLoop
		}
		if n == nil {
			p.state.Scope = scope
			p.finish()
			return nil
		}
		if n.Kind() != quest.KindTrigger {
			p.node = n
			p.state.Position = n.Path()
			p.state.Scope = scope
			return nil
		}

		var err error
		if !p.in.IsEnabled(n, scope) {
			if n, err = p.in.Load(FindNextSibling(n)); err != nil {
				return err
			}
			continue
		}
		text := strings.TrimSpace(p.in.ResolveTrigger(n).Text)
		switch fields := strings.Fields(text); {
		case strings.EqualFold(text, "end"):
			p.state.Scope = scope
			p.finish()
			return nil
		case len(fields) == 2 && strings.EqualFold(fields[0], "goto"):
			dest := p.root.FindByID(fields[1])
			if dest == nil {
				return fmt.Errorf("%w: %q", ErrGotoTargetMissing, fields[1])
			}
			if n, err = p.in.Load(dest); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTrigger, text)
		}
	}
}

func (p *Playthrough) finish() {
	p.node = nil
	p.state.Position = nil
	p.state.Finished = true
}
