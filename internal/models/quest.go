package models

import (
	"time"

	"github.com/google/uuid"
)

// Quest - опубликованный квест. Markup хранит скомпилированное дерево,
// Source исходный текст автора.
type Quest struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AuthorID   uint64    `db:"author_id" json:"authorId"`
	Title      string    `db:"title" json:"title"`
	Summary    string    `db:"summary" json:"summary"`
	Source     string    `db:"source" json:"-"`
	Markup     string    `db:"markup" json:"-"`
	MinPlayers *int      `db:"min_players" json:"minPlayers,omitempty"`
	MaxPlayers *int      `db:"max_players" json:"maxPlayers,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// QuestSummary - строка списка квестов без исходника и разметки.
type QuestSummary struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AuthorID   uint64    `db:"author_id" json:"authorId"`
	Title      string    `db:"title" json:"title"`
	Summary    string    `db:"summary" json:"summary"`
	MinPlayers *int      `db:"min_players" json:"minPlayers,omitempty"`
	MaxPlayers *int      `db:"max_players" json:"maxPlayers,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
