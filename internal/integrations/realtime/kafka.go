package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig настройки kafka транспорта
type KafkaConfig struct {
	Brokers []string
	// Topic топик событий бронирований; ключ сообщения - userId
	Topic string
	// GroupID префикс consumer group, к нему добавляется userId
	GroupID string
	// JoinTopic топик для сообщений join, пустой - join не публикуется
	JoinTopic      string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport транспорт, читающий события пользователя из топика kafka
// Комната пользователя - это сообщения с ключом, равным userId
type KafkaTransport struct {
	cfg       KafkaConfig
	logger    Logger
	newReader func(cfg kafka.ReaderConfig) messageReader
	newWriter func(cfg KafkaConfig) messageWriter
}

// NewKafkaTransport создает kafka транспорт
func NewKafkaTransport(cfg KafkaConfig, logger Logger) *KafkaTransport {
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10e6
	}
	if cfg.CommitInterval <= 0 {
		cfg.CommitInterval = time.Second
	}

	return &KafkaTransport{
		cfg:    cfg,
		logger: logger,
		newReader: func(rc kafka.ReaderConfig) messageReader {
			return kafka.NewReader(rc)
		},
		newWriter: func(kc KafkaConfig) messageWriter {
			return &kafka.Writer{
				Addr:     kafka.TCP(kc.Brokers...),
				Topic:    kc.JoinTopic,
				Balancer: &kafka.Hash{},
			}
		},
	}
}

// Dial создает reader для consumer group пользователя
func (t *KafkaTransport) Dial(ctx context.Context, userID string) (Conn, error) {
	if len(t.cfg.Brokers) == 0 || t.cfg.Topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := t.newReader(kafka.ReaderConfig{
		Brokers:        t.cfg.Brokers,
		Topic:          t.cfg.Topic,
		GroupID:        t.groupID(userID),
		MinBytes:       t.cfg.MinBytes,
		MaxBytes:       t.cfg.MaxBytes,
		CommitInterval: t.cfg.CommitInterval,
	})

	var writer messageWriter
	if t.cfg.JoinTopic != "" {
		writer = t.newWriter(t.cfg)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	return &kafkaConn{
		userID: userID,
		reader: reader,
		writer: writer,
		logger: t.logger,
		ctx:    loopCtx,
		cancel: cancel,
	}, nil
}

func (t *KafkaTransport) groupID(userID string) string {
	if t.cfg.GroupID == "" {
		return "booking-sync." + userID
	}
	return t.cfg.GroupID + "." + userID
}

type kafkaConn struct {
	userID string
	reader messageReader
	writer messageWriter
	logger Logger

	// ctx отменяется в Close и прерывает ReadMessage
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func (c *kafkaConn) Join(ctx context.Context, req JoinRequest) error {
	if c.writer == nil {
		c.logger.Info("Join: kafka room of user=%s is the message key, nothing to publish", req.UserID)
		return nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal join: %v", err)
	}
	value, err := json.Marshal(Frame{Event: EventJoin, Data: data})
	if err != nil {
		return fmt.Errorf("marshal join frame: %v", err)
	}

	if err := c.writer.WriteMessages(ctx, kafka.Message{Key: []byte(req.UserID), Value: value}); err != nil {
		return fmt.Errorf("publish join: %v", err)
	}
	return nil
}

func (c *kafkaConn) Receive(ctx context.Context) (Frame, error) {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	for {
		msg, err := c.reader.ReadMessage(readCtx)
		if err != nil {
			if c.ctx.Err() != nil {
				return Frame{}, ErrConnClosed
			}
			return Frame{}, err
		}

		if string(msg.Key) != c.userID {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(msg.Value, &frame); err != nil {
			c.logger.Warn("Receive: skipping non-frame message at offset %d: %v", msg.Offset, err)
			continue
		}
		return frame, nil
	}
}

func (c *kafkaConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.reader.Close()
		if c.writer != nil {
			if werr := c.writer.Close(); werr != nil && err == nil {
				err = werr
			}
		}
	})
	return err
}
