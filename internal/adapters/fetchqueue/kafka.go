package fetchqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const FETCH_CONSUMER_GROUP = "steambuddy-fetch-worker"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaDispatcher struct {
	writer messageWriter

	tracer trace.Tracer
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return newKafkaDispatcher(&kafka.Writer{
		Addr:  kafka.TCP(brokers...),
		Topic: topic,
		// Jobs for the same player land on the same partition
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaDispatcher(writer messageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: writer,

		tracer: otel.Tracer("steambuddy/fetchqueue/kafka"),
	}
}

func (k *KafkaDispatcher) Enqueue(ctx context.Context, job FetchJob) error {
	ctx, span := k.tracer.Start(ctx, "KafkaDispatcher.Enqueue")
	defer span.End()

	span.SetAttributes(attribute.String("steambuddy.job_id", job.ID.String()))

	data, err := encodeJob(job)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"steamId": job.SteamID,
		})
		return err
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.SteamID),
		Value: data,
		Time:  job.EnqueuedAt,
	})
	if err != nil {
		err := fmt.Errorf("failed to write fetch job to kafka: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"steamId": job.SteamID,
		})
		return err
	}

	return nil
}

func (k *KafkaDispatcher) Close() error {
	return k.writer.Close()
}

// Consumes fetch jobs from a kafka consumer group.
// Offsets are committed once the handler has returned, so a crash mid-job redelivers the job.
type KafkaConsumer struct {
	reader  messageReader
	handler JobHandler

	logger *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic string, handler JobHandler, logger *slog.Logger) *KafkaConsumer {
	return newKafkaConsumer(
		kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  FETCH_CONSUMER_GROUP,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 1e6,
			MaxWait:  time.Second,
		}),
		handler,
		logger,
	)
}

func newKafkaConsumer(reader messageReader, handler JobHandler, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		handler: handler,

		logger: logger,
	}
}

// Process jobs until the context is cancelled
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		jobCtx := reporting.AddHubToContext(ctx)
		logger := c.logger.With("partition", message.Partition, "offset", message.Offset)

		job, err := decodeJob(message.Value)
		if err != nil {
			jobCtx = logging.AddToContext(jobCtx, logger)
			reporting.Report(jobCtx, err, map[string]string{
				"data": string(message.Value),
			})
			logger.ErrorContext(jobCtx, "Skipping malformed fetch job", "error", err.Error())
		} else {
			jobCtx = reporting.AddFetchJobToContext(jobCtx, job.ID.String(), job.SteamID)
			jobCtx = logging.AddToContext(jobCtx, logger.With("jobId", job.ID.String(), "steamId", job.SteamID))
			runJob(jobCtx, c.handler, job)
		}

		err = c.reader.CommitMessages(ctx, message)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			err := fmt.Errorf("failed to commit message: %w", err)
			reporting.Report(jobCtx, err)
			return err
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
