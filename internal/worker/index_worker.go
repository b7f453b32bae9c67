package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"studybuddy/internal/model"
)

// JobIndexer indexes a transcript that is already stored.
type JobIndexer interface {
	IndexStored(ctx context.Context, job model.IndexJob) (int, error)
}

type IndexWorker struct {
	conn      *amqp.Connection
	indexer   JobIndexer
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexWorker(conn *amqp.Connection, indexer JobIndexer, queueName string, logger *zap.Logger) *IndexWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexWorker{
		conn:      conn,
		indexer:   indexer,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *IndexWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	// One unacked job at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.consume(workerCtx, deliveries)
	}()

	w.logger.Info("index worker started", zap.String("queue", w.queueName))
	return nil
}

// consume runs until ctx is done or the broker closes the delivery channel.
func (w *IndexWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("index job deliveries closed, worker stopped", zap.String("queue", w.queueName))
				return
			}
			if w.handle(ctx, d.Body) {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, false)
			}
		}
	}
}

// handle reports whether the delivery should be acked. Failed jobs are
// dropped rather than requeued; the transcript stays stored and can be
// indexed again by re-publishing its job.
func (w *IndexWorker) handle(ctx context.Context, body []byte) bool {
	var job model.IndexJob
	if err := json.Unmarshal(body, &job); err != nil || job.TranscriptID == "" {
		w.logger.Warn("dropping malformed index job", zap.ByteString("body", body), zap.Error(err))
		return false
	}

	n, err := w.indexer.IndexStored(ctx, job)
	if err != nil {
		w.logger.Error("index transcript failed, job dropped",
			zap.String("transcript_id", job.TranscriptID),
			zap.String("course_name", job.CourseName),
			zap.Error(err))
		return false
	}
	w.logger.Info("transcript indexed",
		zap.String("transcript_id", job.TranscriptID),
		zap.String("course_name", job.CourseName),
		zap.Int("chunks", n))
	return true
}

func (w *IndexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
