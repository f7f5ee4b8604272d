// Package consumer runs a franz-go consumer group and hands each record to a
// Handler, committing offsets only after the handler accepts the record.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the transport-neutral view of a Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Header returns the value of a record header, or "" when absent.
func (m *Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// Handler processes a single message. Returning nil commits the record;
// returning an error retries it.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Config configures a consumer group.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// Consumer polls records and dispatches them to a Handler.
type Consumer struct {
	client      *kgo.Client
	handler     Handler
	logger      *slog.Logger
	backoff     time.Duration
	maxBackoff  time.Duration
	onRetryHook func(msg *Message, attempt int, err error)

	mu      sync.Mutex
	revoked map[topicPartition]struct{}
	current *inflight
}

type topicPartition struct {
	topic     string
	partition int32
}

// inflight is the record currently held by the handler loop.
type inflight struct {
	tp     topicPartition
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithBackoff sets the initial and maximum delay between handler retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Consumer) {
		c.backoff = initial
		c.maxBackoff = max
	}
}

// WithRetryHook is called before each retry of a failed record.
func WithRetryHook(fn func(msg *Message, attempt int, err error)) Option {
	return func(c *Consumer) {
		c.onRetryHook = fn
	}
}

// New creates a consumer group client. Auto-commit is disabled; offsets are
// committed after each record is handled.
func New(cfg Config, handler Handler, opts ...Option) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: no brokers configured")
	}
	if cfg.GroupID == "" || len(cfg.Topics) == 0 {
		return nil, errors.New("kafka consumer: group id and topics are required")
	}
	c := &Consumer{
		handler:    handler,
		logger:     slog.Default(),
		backoff:    200 * time.Millisecond,
		maxBackoff: 10 * time.Second,
		revoked:    make(map[topicPartition]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.OnPartitionsAssigned(c.onAssigned),
		kgo.OnPartitionsRevoked(c.onRevoked),
		kgo.OnPartitionsLost(c.onRevoked),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	c.client = client
	return c, nil
}

// Client exposes the underlying client for topic administration.
func (c *Consumer) Client() *kgo.Client {
	return c.client
}

// Run polls until ctx is cancelled. A record whose handler keeps failing is
// retried with backoff and is never skipped while this member owns its
// partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		stopped := false
		fetches.EachRecord(func(rec *kgo.Record) {
			if stopped {
				return
			}
			commit, err := c.dispatch(ctx, rec)
			if err != nil {
				stopped = true
				return
			}
			if !commit {
				return
			}
			if err := c.client.CommitRecords(ctx, rec); err != nil {
				c.logger.WarnContext(ctx, "kafka commit failed",
					"topic", rec.Topic,
					"partition", rec.Partition,
					"offset", rec.Offset,
					"error", err,
				)
			}
		})
		if stopped {
			return nil
		}
	}
}

// dispatch hands rec to the handler and reports whether its offset may be
// committed. Records of a revoked partition are dropped uncommitted; the new
// owner resumes from the last committed offset. The error is non-nil only
// when ctx itself is done.
func (c *Consumer) dispatch(ctx context.Context, rec *kgo.Record) (bool, error) {
	tp := topicPartition{topic: rec.Topic, partition: rec.Partition}
	recCtx, finish, ok := c.begin(ctx, tp)
	if !ok {
		return false, nil
	}
	err := c.handleWithRetry(recCtx, toMessage(rec))
	finish()

	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || c.isRevoked(tp) {
		c.logger.InfoContext(ctx, "kafka partition revoked, leaving record to new owner",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
		)
		return false, nil
	}
	return true, nil
}

// begin registers the in-flight record so a revocation can cancel it.
func (c *Consumer) begin(ctx context.Context, tp topicPartition) (context.Context, func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.revoked[tp]; gone {
		return nil, nil, false
	}
	recCtx, cancel := context.WithCancel(ctx)
	cur := &inflight{tp: tp, cancel: cancel, done: make(chan struct{})}
	c.current = cur
	return recCtx, func() {
		c.mu.Lock()
		if c.current == cur {
			c.current = nil
		}
		c.mu.Unlock()
		cancel()
		close(cur.done)
	}, true
}

func (c *Consumer) isRevoked(tp topicPartition) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, gone := c.revoked[tp]
	return gone
}

// onRevoked runs inside the rebalance. It stops a retry loop holding a
// revoked partition and waits for it, so the partition is not handled by two
// members at once.
func (c *Consumer) onRevoked(ctx context.Context, _ *kgo.Client, revoked map[string][]int32) {
	c.mu.Lock()
	if c.revoked == nil {
		c.revoked = make(map[topicPartition]struct{})
	}
	for topic, partitions := range revoked {
		for _, p := range partitions {
			c.revoked[topicPartition{topic: topic, partition: p}] = struct{}{}
		}
	}
	cur := c.current
	var wait bool
	if cur != nil {
		_, wait = c.revoked[cur.tp]
	}
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "kafka partitions revoked", "partitions", revoked)
	if wait {
		cur.cancel()
		<-cur.done
	}
}

func (c *Consumer) onAssigned(ctx context.Context, _ *kgo.Client, assigned map[string][]int32) {
	c.mu.Lock()
	for topic, partitions := range assigned {
		for _, p := range partitions {
			delete(c.revoked, topicPartition{topic: topic, partition: p})
		}
	}
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "kafka partitions assigned", "partitions", assigned)
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg *Message) error {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		if c.onRetryHook != nil {
			c.onRetryHook(msg, attempt, err)
		}
		c.logger.WarnContext(ctx, "kafka handler failed, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}

func toMessage(rec *kgo.Record) *Message {
	msg := &Message{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       rec.Key,
		Value:     rec.Value,
		Timestamp: rec.Timestamp,
	}
	if len(rec.Headers) > 0 {
		msg.Headers = make(map[string]string, len(rec.Headers))
		for _, h := range rec.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}
