package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"studybuddy/internal/model"
)

type IndexJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewIndexJobPublisher(conn *amqp.Connection, queueName string) *IndexJobPublisher {
	return &IndexJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *IndexJobPublisher) PublishIndexJob(ctx context.Context, job model.IndexJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal index job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.TranscriptID,
		},
	); err != nil {
		return fmt.Errorf("publish index job failed: %w", err)
	}
	return nil
}
