package quest

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidRoot = errors.New("quest has invalid root node")
)

// StructuralError перечисляет все нарушения белого списка и повторные id
// в документе.
type StructuralError struct {
	// Invalid: счетчики запрещенных тегов по имени и атрибутов по "tag.attribute".
	Invalid map[string]int
	// DuplicateIDs: id, заявленный несколько раз -> теги, которые его заявили.
	DuplicateIDs map[string][]string
}

func (e *StructuralError) Error() string {
	var parts []string
	if len(e.Invalid) > 0 {
		b, _ := json.Marshal(e.Invalid)
		parts = append(parts, "found invalid nodes and attributes: "+string(b))
	}
	if len(e.DuplicateIDs) > 0 {
		b, _ := json.Marshal(e.DuplicateIDs)
		parts = append(parts, "found nodes with duplicate ids: "+string(b))
	}
	return strings.Join(parts, "; ")
}
