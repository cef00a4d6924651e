package interpreter

import "errors"

var (
	ErrEmptyQuest         = errors.New("quest has no cards")
	ErrUnknownNode        = errors.New("unknown node name")
	ErrInvalidControlNode = errors.New("node cannot have <event> or <choice> child")
	ErrNoControlChild     = errors.New("node without goto attribute must have at least one of <combat>, <trigger> or <roleplay>")
	ErrGotoTargetMissing  = errors.New("goto target not found")
	ErrNoMatchingEvent    = errors.New("could not find enabled child for event")
	ErrRoleplayEvent      = errors.New("<roleplay> cannot contain <event>")
	ErrChoiceMissingText  = errors.New("<choice> inside <roleplay> must have 'text' attribute")
	ErrUnknownTrigger     = errors.New("unknown trigger content")
	ErrInvalidCombatChild = errors.New("invalid combat child element")
	ErrCombatNoWin        = errors.New("<combat> must have at least one conditionally true child with on='win'")
	ErrCombatNoLose       = errors.New("<combat> must have at least one conditionally true child with on='lose'")
	ErrCombatNoEnemies    = errors.New("<combat> has no <e> children")

	// Ошибки прохождения
	ErrQuestFinished = errors.New("quest already finished")
	ErrWrongCard     = errors.New("action does not apply to the current card")
	ErrInvalidChoice = errors.New("choice is not available")
	ErrTriggerLoop   = errors.New("triggers jump in a loop")
	ErrBadPosition   = errors.New("playthrough position does not exist in quest")
)
