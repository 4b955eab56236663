package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/pkg/logger"
)

// ChangeBindingAll 匹配所有行程的所有表
const ChangeBindingAll = "trip.#"

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

// Init 建立连接并声明变更交换机和推送队列
func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			logger.Logger.Error("Failed to dial RabbitMQ", zap.Error(connErr))
			return
		}

		connErr = declareTopology()
		if connErr != nil {
			return
		}

		logger.Logger.Info("RabbitMQ initialized successfully",
			zap.String("exchange", config.Cfg.ChangeExchange),
			zap.String("push_queue", config.Cfg.ChangePushQueue),
		)
	})

	return connErr
}

func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	cfg := config.Cfg
	if err := ch.ExchangeDeclare(cfg.ChangeExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.ChangeExchange, err)
	}

	// worker 消费的持久队列，收到全部变更后推送给浏览器
	if _, err := ch.QueueDeclare(cfg.ChangePushQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", cfg.ChangePushQueue, err)
	}
	if err := ch.QueueBind(cfg.ChangePushQueue, ChangeBindingAll, cfg.ChangeExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", cfg.ChangePushQueue, err)
	}

	return nil
}

// DeclareInstanceQueue 为当前 server 实例声明独占的临时队列，连接断开即删除
func DeclareInstanceQueue(exchange, bindingKey string) (string, error) {
	if conn == nil {
		return "", fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return "", fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to declare instance queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind instance queue: %w", err)
	}

	return q.Name, nil
}

func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil || conn.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
