package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const EventQuestPublished = "quest.published"

// QuestEvent уходит в очередь событий при изменениях каталога квестов.
type QuestEvent struct {
	EventID   string    `json:"eventId"`
	Type      string    `json:"type"`
	QuestID   string    `json:"questId"`
	AuthorID  uint64    `json:"authorId"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// NewQuestPublishedEvent заполняет событие публикации квеста.
func NewQuestPublishedEvent(questID uuid.UUID, authorID uint64, title string) QuestEvent {
	return QuestEvent{
		EventID:   uuid.NewString(),
		Type:      EventQuestPublished,
		QuestID:   questID.String(),
		AuthorID:  authorID,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
}

// QuestEventPublisher публикует события квестов.
type QuestEventPublisher interface {
	PublishQuestEvent(ctx context.Context, event QuestEvent) error
}

type rabbitMQQuestEventPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQQuestEventPublisher открывает канал и объявляет durable очередь,
// чтобы порядок запуска сервисов не имел значения.
func NewRabbitMQQuestEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (QuestEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("quest event publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("quest event publisher: failed to declare queue '%s': %w", queueName, err)
	}

	logger = logger.Named("QuestEventPublisher")
	logger.Info("Queue declared", zap.String("queue", queueName))
	return &rabbitMQQuestEventPublisher{channel: ch, queueName: queueName, logger: logger}, nil
}

func (p *rabbitMQQuestEventPublisher) PublishQuestEvent(ctx context.Context, event QuestEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal quest event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Type:         event.Type,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish quest event", zap.String("questID", event.QuestID), zap.Error(err))
		return fmt.Errorf("failed to publish quest event: %w", err)
	}
	p.logger.Debug("Quest event published", zap.String("type", event.Type), zap.String("questID", event.QuestID))
	return nil
}
