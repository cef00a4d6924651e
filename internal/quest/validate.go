package quest

import "strings"

// Validate проверяет структуру всего дерева один раз после компиляции:
// белый список тегов и атрибутов, затем повторные id.
func Validate(root *Node) error {
	if root == nil {
		return ErrInvalidRoot
	}
	invalid := make(map[string]int)
	collectInvalid(root, invalid)

	ids := make(map[string][]string)
	collectIDs(root, ids)
	dups := make(map[string][]string)
	for id, tags := range ids {
		if len(tags) > 1 {
			dups[id] = tags
		}
	}

	if len(invalid) == 0 && len(dups) == 0 {
		return nil
	}
	return &StructuralError{Invalid: invalid, DuplicateIDs: dups}
}

func collectInvalid(n *Node, out map[string]int) {
	if n.IsText() {
		return
	}
	if n.kind == KindUnknown {
		out[n.tag]++
	}
	for _, a := range n.attrs {
		// Обработчики событий HTML начинаются с "on", голый "on" - событие квеста.
		if strings.HasPrefix(a.Key, "on") && a.Key != "on" {
			out[n.tag+"."+a.Key]++
		}
	}
	for _, c := range n.children {
		collectInvalid(c, out)
	}
}

func collectIDs(n *Node, out map[string][]string) {
	if n.IsText() {
		return
	}
	if id := n.AttrValue("id"); id != "" {
		out[id] = append(out[id], n.tag)
	}
	for _, c := range n.children {
		collectIDs(c, out)
	}
}
