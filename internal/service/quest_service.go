package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"quest-server/internal/compiler"
	"quest-server/internal/interpreter"
	"quest-server/internal/messaging"
	"quest-server/internal/models"
	"quest-server/internal/quest"
	"quest-server/internal/repository"
	"quest-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CompileResult is the author-facing outcome of compiling a quest source.
type CompileResult struct {
	Title           string           `json:"title"`
	Markup          string           `json:"xml"`
	Report          string           `json:"report"`
	Diagnostics     []compiler.Entry `json:"diagnostics"`
	ValidationError string           `json:"validationError,omitempty"`
	Valid           bool             `json:"valid"`

	root *quest.Node
}

// QuestService compiles, publishes and looks up quests.
type QuestService interface {
	Compile(ctx context.Context, source string) *CompileResult
	Publish(ctx context.Context, authorID uint64, source string) (*models.Quest, *CompileResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	// List returns a page of quests and the cursor of the next page ("" at the end).
	List(ctx context.Context, cursor string, limit int) ([]models.QuestSummary, string, error)
	// Tree returns the compiled tree of a published quest. Trees are shared
	// by every playthrough and must not be modified.
	Tree(ctx context.Context, id uuid.UUID) (*quest.Node, error)
}

type questServiceImpl struct {
	repo      repository.QuestRepository
	publisher messaging.QuestEventPublisher
	in        *interpreter.Interpreter
	trees     sync.Map // uuid.UUID -> *quest.Node
	logger    *zap.Logger
}

func NewQuestService(repo repository.QuestRepository, publisher messaging.QuestEventPublisher, in *interpreter.Interpreter, logger *zap.Logger) QuestService {
	return &questServiceImpl{
		repo:      repo,
		publisher: publisher,
		in:        in,
		logger:    logger.Named("QuestService"),
	}
}

// Compile never fails: problems are reported in the result.
func (s *questServiceImpl) Compile(ctx context.Context, source string) *CompileResult {
	log := compiler.NewLog()
	root := compiler.Document(source, log)

	res := &CompileResult{
		Title:       root.AttrValue("title"),
		Markup:      root.Indented("    "),
		Diagnostics: log.Entries(),
		root:        root,
	}
	res.Report = log.Finalize()
	if res.Diagnostics == nil {
		res.Diagnostics = []compiler.Entry{}
	}

	if err := s.dryRun(root); err != nil {
		res.ValidationError = err.Error()
	}
	res.Valid = !log.HasErrors() && res.ValidationError == ""
	return res
}

// dryRun checks the tree is structurally valid and has a first card.
func (s *questServiceImpl) dryRun(root *quest.Node) error {
	if err := s.in.Validate(root); err != nil {
		return err
	}
	_, err := s.in.Init(root)
	return err
}

func (s *questServiceImpl) Publish(ctx context.Context, authorID uint64, source string) (*models.Quest, *CompileResult, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil, ErrEmptySource
	}
	res := s.Compile(ctx, source)
	if !res.Valid {
		return nil, res, ErrQuestInvalid
	}

	now := time.Now().UTC()
	q := &models.Quest{
		ID:         uuid.New(),
		AuthorID:   authorID,
		Title:      res.Title,
		Summary:    res.root.AttrValue("summary"),
		Source:     source,
		Markup:     res.root.Markup(),
		MinPlayers: intAttr(res.root, "minplayers"),
		MaxPlayers: intAttr(res.root, "maxplayers"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, res, fmt.Errorf("failed to store quest: %w", err)
	}
	s.trees.Store(q.ID, res.root)

	event := messaging.NewQuestPublishedEvent(q.ID, authorID, q.Title)
	if err := s.publisher.PublishQuestEvent(ctx, event); err != nil {
		// Квест уже сохранен, событие не критично
		s.logger.Error("Failed to publish quest event", zap.String("questID", q.ID.String()), zap.Error(err))
	}

	s.logger.Info("Quest published",
		zap.String("questID", q.ID.String()),
		zap.Uint64("authorID", authorID),
		zap.String("title", q.Title),
	)
	return q, res, nil
}

func intAttr(n *quest.Node, key string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(n.AttrValue(key)))
	if err != nil {
		return nil
	}
	return &v
}

func (s *questServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *questServiceImpl) List(ctx context.Context, cursor string, limit int) ([]models.QuestSummary, string, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	afterAt, afterID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	// Берем на одну запись больше, чтобы понять, есть ли следующая страница
	quests, err := s.repo.List(ctx, afterAt, afterID, limit+1)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(quests) > limit {
		quests = quests[:limit]
		last := quests[limit-1]
		next = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return quests, next, nil
}

func (s *questServiceImpl) Tree(ctx context.Context, id uuid.UUID) (*quest.Node, error) {
	if root, ok := s.trees.Load(id); ok {
		return root.(*quest.Node), nil
	}

	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log := compiler.NewLog()
	root := compiler.Document(q.Source, log)
	if log.HasErrors() {
		// Опубликованный квест компилировался без ошибок; значит поменялся компилятор
		s.logger.Error("Stored quest no longer compiles",
			zap.String("questID", id.String()),
			zap.String("report", log.Finalize()),
		)
		return nil, fmt.Errorf("%w: %s", ErrQuestBroken, id)
	}

	actual, _ := s.trees.LoadOrStore(id, root)
	return actual.(*quest.Node), nil
}

// isQuestContentError reports whether err comes from the quest document
// itself rather than from the player's move.
func isQuestContentError(err error) bool {
	var se *quest.StructuralError
	return errors.As(err, &se) ||
		errors.Is(err, interpreter.ErrUnknownNode) ||
		errors.Is(err, interpreter.ErrInvalidControlNode) ||
		errors.Is(err, interpreter.ErrNoControlChild) ||
		errors.Is(err, interpreter.ErrGotoTargetMissing) ||
		errors.Is(err, interpreter.ErrRoleplayEvent) ||
		errors.Is(err, interpreter.ErrChoiceMissingText) ||
		errors.Is(err, interpreter.ErrUnknownTrigger) ||
		errors.Is(err, interpreter.ErrInvalidCombatChild) ||
		errors.Is(err, interpreter.ErrCombatNoWin) ||
		errors.Is(err, interpreter.ErrCombatNoLose) ||
		errors.Is(err, interpreter.ErrCombatNoEnemies) ||
		errors.Is(err, interpreter.ErrTriggerLoop) ||
		errors.Is(err, interpreter.ErrEmptyQuest) ||
		errors.Is(err, interpreter.ErrBadPosition)
}
