// Package queue moves asynchronous batch jobs through RabbitMQ.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// JobRunner loads and runs the batch job a message refers to.
type JobRunner interface {
	Load(ctx context.Context, id string) (*models.BatchJob, error)
	Execute(ctx context.Context, job *models.BatchJob) (models.BatchSummary, error)
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	jobs      JobRunner
	workers   sync.WaitGroup
}

func NewQueueService(rabbitmqURL, queueName string, jobs JobRunner, logger *zap.Logger) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// One job at a time per consumer; a batch already paces its own items.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		jobs:      jobs,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
