package infrastructure

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ats-pipeline/domain"
)

const (
	ingestQueue     = "resume_ingest_queue"
	deadLetterQueue = "resume_ingest_dead_letter"
	deadLetterXchg  = "resume_ingest_dlx"
)

// RabbitMQ wraps the durable ingestion queue. Delivery is at-least-once with
// manual acknowledgment; exhausted messages route to the dead-letter queue.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	maxRetries int
	// publish backs the retry republish; swapped out in tests.
	publish func(context.Context, domain.IngestionTask) error
	log     *zap.Logger
}

func NewRabbitMQ(url string, maxRetries int, logger *zap.Logger) *RabbitMQ {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}

	if err := ch.ExchangeDeclare(deadLetterXchg, "direct", true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare dead-letter exchange: %v", err)
	}

	dlq, err := ch.QueueDeclare(deadLetterQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to declare dead-letter queue: %v", err)
	}
	if err := ch.QueueBind(dlq.Name, deadLetterQueue, deadLetterXchg, false, nil); err != nil {
		log.Fatalf("failed to bind dead-letter queue: %v", err)
	}

	_, err = ch.QueueDeclare(
		ingestQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    deadLetterXchg,
			"x-dead-letter-routing-key": deadLetterQueue,
		},
	)
	if err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	logger.Info("connected to RabbitMQ", zap.String("queue", ingestQueue))

	r := &RabbitMQ{conn: conn, channel: ch, maxRetries: maxRetries, log: logger}
	r.publish = r.Publish
	return r
}

func (r *RabbitMQ) Publish(ctx context.Context, task domain.IngestionTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",          // default exchange
		ingestQueue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    task.TaskID,
			Body:         body,
		},
	)
}

// Consume drains the queue with a pool of workers. Each message is handled
// by exactly one worker. The handler's error decides the message's fate:
//
//	nil             -> ack
//	permanent error -> ack (the status record already says FAILED)
//	transient error -> republish with retry_count+1 and ack, or dead-letter
//	                   once the retry budget is spent
//
// The retry counter must ride in the body: a broker requeue redelivers the
// original payload unchanged.
func (r *RabbitMQ) Consume(ctx context.Context, workers int, handler func(context.Context, domain.IngestionTask) error) error {
	if err := r.channel.Qos(workers, 0, false); err != nil {
		return err
	}

	msgs, err := r.channel.Consume(
		ingestQueue,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for i := 0; i < workers; i++ {
		go func(worker int) {
			for d := range msgs {
				r.handleDelivery(ctx, d, handler)
			}
			r.log.Info("worker stopped", zap.Int("worker", worker))
		}(i)
	}
	return nil
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, d amqp.Delivery, handler func(context.Context, domain.IngestionTask) error) {
	var task domain.IngestionTask
	if err := json.Unmarshal(d.Body, &task); err != nil {
		r.log.Error("invalid task payload, dead-lettering", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	err := handler(ctx, task)
	if err == nil || domain.IsPermanent(err) {
		_ = d.Ack(false)
		return
	}

	if task.RetryCount < r.maxRetries {
		task.RetryCount++
		if pubErr := r.publish(ctx, task); pubErr != nil {
			r.log.Error("failed to republish for retry, requeueing original",
				zap.String("task_id", task.TaskID), zap.Error(pubErr))
			_ = d.Nack(false, true)
			return
		}
		r.log.Warn("task retried",
			zap.String("task_id", task.TaskID),
			zap.Int("retry_count", task.RetryCount),
			zap.Error(err))
		_ = d.Ack(false)
		return
	}

	r.log.Error("task exhausted retries, dead-lettering",
		zap.String("task_id", task.TaskID),
		zap.Int("retry_count", task.RetryCount),
		zap.Error(err))
	_ = d.Nack(false, false)
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
