package service

import "errors"

var (
	ErrEmptySource         = errors.New("quest source is empty")
	ErrQuestInvalid        = errors.New("quest does not compile")
	ErrInvalidMove         = errors.New("move is not allowed on the current card")
	ErrPlaythroughFinished = errors.New("playthrough already finished")
	ErrQuestBroken         = errors.New("quest content cannot be played")
)
