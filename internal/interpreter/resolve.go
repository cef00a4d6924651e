package interpreter

import (
	"fmt"
	"strconv"
	"strings"

	"quest-server/internal/expr"
	"quest-server/internal/quest"
)

type CardKind string

const (
	CardNone     CardKind = ""
	CardRoleplay CardKind = "ROLEPLAY"
	CardCombat   CardKind = "COMBAT"
)

// Classify определяет вид карточки для UI. Неизвестный узел дает CardNone,
// а не ошибку.
func Classify(n *quest.Node) CardKind {
	if n == nil {
		return CardNone
	}
	switch n.Kind() {
	case quest.KindRoleplay:
		return CardRoleplay
	case quest.KindCombat:
		return CardCombat
	}
	return CardNone
}

type Choice struct {
	Text string `json:"text"`
	Idx  int    `json:"idx"`
}

type Enemy struct {
	Name  string `json:"name"`
	Tier  int    `json:"tier"`
	Class string `json:"class,omitempty"`
}

type RoleplayResult struct {
	Title       string     `json:"title"`
	Icon        string     `json:"icon,omitempty"`
	Body        string     `json:"body"`
	Choices     []Choice   `json:"choices"`
	Instruction string     `json:"instruction,omitempty"`
	Scope       expr.Scope `json:"-"`
}

type CombatResult struct {
	Icon    string  `json:"icon,omitempty"`
	Enemies []Enemy `json:"enemies"`
}

type TriggerResult struct {
	Node *quest.Node
	Text string
}

// ResolveRoleplay отрисовывает карточку roleplay на копии scope.
// Возвращаемый Scope несет присваивания из шаблонов. Только здесь
// изменения scope сохраняются.
func (in *Interpreter) ResolveRoleplay(n *quest.Node, scope expr.Scope) (*RoleplayResult, error) {
	sc := scope.Clone()
	res := &RoleplayResult{
		Title: n.AttrValue("title"),
		Icon:  n.AttrValue("icon"),
		Scope: sc,
	}

	var body strings.Builder
	branches := 0
	idx := -1
	for _, c := range n.Elements() {
		if c.Kind() == quest.KindChoice {
			idx++
		}
		if !in.IsEnabled(c, sc) {
			continue
		}
		switch c.Kind() {
		case quest.KindChoice:
			text := c.AttrValue("text")
			if text == "" {
				return nil, fmt.Errorf("%w (line %d)", ErrChoiceMissingText, c.Line())
			}
			res.Choices = append(res.Choices, Choice{Text: text, Idx: idx})
			branches++
		case quest.KindEvent:
			return nil, fmt.Errorf("%w (line %d)", ErrRoleplayEvent, c.Line())
		case quest.KindInstruction:
			res.Instruction = c.InnerMarkup()
		default:
			body.WriteString(in.RenderTemplate(c.Markup(), sc))
		}
	}
	res.Body = body.String()

	if branches == 0 {
		text := "Next"
		if next := FindNextSibling(n); next != nil && next.Kind() == quest.KindTrigger {
			switch content := strings.TrimSpace(next.Text()); strings.ToLower(content) {
			case "end":
				text = "End"
			default:
				return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, content)
			}
		}
		res.Choices = append(res.Choices, Choice{Text: text, Idx: 0})
	}
	return res, nil
}

// ResolveCombat перечисляет включенных противников и проверяет, что есть
// включенные события win и lose. Изменения scope отбрасываются.
func (in *Interpreter) ResolveCombat(n *quest.Node, scope expr.Scope) (*CombatResult, error) {
	sc := scope.Clone()
	res := &CombatResult{Icon: n.AttrValue("icon")}

	var wins, loses int
	for _, c := range n.Elements() {
		if !in.IsEnabled(c, sc) {
			continue
		}
		switch c.Kind() {
		case quest.KindEnemy:
			res.Enemies = append(res.Enemies, in.enemy(c, sc))
		case quest.KindEvent:
			switch c.AttrValue("on") {
			case "win":
				wins++
			case "lose":
				loses++
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidCombatChild, c.Tag())
		}
	}

	if wins == 0 {
		return nil, ErrCombatNoWin
	}
	if loses == 0 {
		return nil, ErrCombatNoLose
	}
	if len(res.Enemies) == 0 {
		return nil, ErrCombatNoEnemies
	}
	return res, nil
}

func (in *Interpreter) enemy(c *quest.Node, scope expr.Scope) Enemy {
	name := c.Text()
	if op, ok := firstOp(name); ok {
		if v, outcome := in.evalOp(op, scope); outcome == opValue && v != "" {
			name = v
		}
	}

	e := Enemy{Name: name, Tier: 1}
	if in.encounters != nil {
		if row, ok := in.encounters.Lookup(name); ok {
			e.Tier, e.Class = row.Tier, row.Class
		}
	}
	// Явный tier из документа важнее таблицы
	if t, err := strconv.Atoi(c.AttrValue("tier")); err == nil && t > 0 {
		e.Tier = t
	}
	return e
}

// ResolveTrigger отдает текст триггера. "end" и "goto <id>" разбирает
// вызывающий код.
func (in *Interpreter) ResolveTrigger(n *quest.Node) TriggerResult {
	return TriggerResult{Node: n, Text: n.Text()}
}
