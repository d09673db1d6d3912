package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	outboxChannel = "outbox_pending"
	batchSize     = 10
	drainInterval = time.Minute
)

// OutboxWorker доставляет события order.placed из таблицы outbox в Kafka.
// Просыпается по NOTIFY; периодический дренаж подбирает события, чьи
// уведомления пришлись на разрыв соединения.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	wakeup    chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		wakeup:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.drainLoop(ctx)
	}()
	go func() {
		defer w.wg.Done()
		w.listenLoop(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// drainLoop разбирает outbox при старте, по сигналу от слушателя NOTIFY
// и по таймеру.
func (w *OutboxWorker) drainLoop(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-w.wakeup:
			w.drain(ctx)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		events, err := w.repo.GetAndMarkAsProcessing(ctx, batchSize)
		if err != nil {
			w.logger.Warnf("Failed to claim outbox batch: %v", err)
			return
		}
		if len(events) == 0 {
			return
		}

		for _, event := range events {
			if err := w.publishEvent(ctx, event); err != nil {
				w.logger.Warnf("Failed to publish outbox event %d: %v", event.ID, err)
				continue
			}
			if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
				w.logger.Warnf("Failed to mark event %d as processed: %v", event.ID, err)
			}
		}
	}
}

// listenLoop держит выделенное соединение под LISTEN и толкает drainLoop
// при каждом уведомлении. Разрывы соединения лечатся переподключением
// с экспоненциальной задержкой.
func (w *OutboxWorker) listenLoop(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
			conn.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed: %v", err)
		return
	}
	defer conn.Close(ctx)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}

			w.logger.Warnf("LISTEN connection lost: %v. Reconnecting...", err)
			conn.Close(ctx)

			time.Sleep(jitter.Backoff(2*time.Second, 30*time.Second, attempt, jitter.DefaultJitter))
			if err := connect(); err != nil {
				w.logger.Warnf("Reconnect failed: %v", err)
				attempt++
				continue
			}
			attempt = 0
			// Соединения не было — возможно, пропущены уведомления
			w.notifyDrain()
			continue
		}

		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Outbox notification received, payload: %s", notif.Payload)
			w.notifyDrain()
		}
	}
}

// notifyDrain толкает дренаж, не блокируясь: один отложенный сигнал
// покрывает любое число слившихся уведомлений.
func (w *OutboxWorker) notifyDrain() {
	select {
	case w.wakeup <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) publishEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.OrderID, event.Payload))
	if err != nil {
		if isRetryableError(err) {
			return e.Wrap("temporary Kafka failure, event stays claimed", err)
		}
		return e.Wrap("permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
