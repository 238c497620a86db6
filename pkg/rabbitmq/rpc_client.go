/**
 * @description
 * This file implements the request/reply client used to query the wallet and loyalty
 * collaborators. Each client owns one exclusive reply queue; outgoing requests are
 * tagged with a fresh correlation id and the matching reply is routed back to the
 * waiting caller. Calls respect the caller's context, so a slow collaborator fails
 * the request at the configured deadline instead of blocking it indefinitely.
 *
 * @dependencies
 * - context, encoding/json, sync: Standard Go libraries.
 * - github.com/google/uuid: Correlation id generation.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrReplyChannelClosed is returned when the reply consumer shuts down while calls
// are still in flight.
var ErrReplyChannelClosed = errors.New("rpc reply channel closed")

// Caller is the interface implemented by types that can perform a request/reply
// round-trip against a collaborator queue.
type Caller interface {
	Call(ctx context.Context, queue string, body interface{}) ([]byte, error)
}

// RPCClient is a request/reply client with a single shared reply queue.
type RPCClient struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	replyQueue string

	mu      sync.Mutex
	pending map[string]chan []byte
	closed  bool
}

// NewRPCClient connects to RabbitMQ, declares an exclusive auto-delete reply queue
// and starts the dispatch loop that matches replies to waiting calls.
func NewRPCClient(amqpURL string) (*RPCClient, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	client := &RPCClient{
		conn:       conn,
		ch:         ch,
		replyQueue: q.Name,
		pending:    make(map[string]chan []byte),
	}

	go client.dispatch(msgs)

	return client, nil
}

// dispatch routes each incoming reply to the call waiting on its correlation id.
func (c *RPCClient) dispatch(msgs <-chan amqp.Delivery) {
	for d := range msgs {
		c.mu.Lock()
		waiter, ok := c.pending[d.CorrelationId]
		if ok {
			delete(c.pending, d.CorrelationId)
		}
		c.mu.Unlock()
		if !ok {
			log.Printf("level=warn component=rpc_client msg=\"reply with unknown correlation id\" correlation_id=%s", d.CorrelationId)
			continue
		}
		waiter <- d.Body
	}

	// The consume channel closed; fail every in-flight call.
	c.mu.Lock()
	c.closed = true
	for corrID, waiter := range c.pending {
		close(waiter)
		delete(c.pending, corrID)
	}
	c.mu.Unlock()
}

// Call publishes a JSON-encoded request to the given queue and awaits exactly one
// reply carrying the same correlation id, or fails when ctx is done.
func (c *RPCClient) Call(ctx context.Context, queue string, body interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	corrID := uuid.NewString()
	waiter := make(chan []byte, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrReplyChannelClosed
	}
	c.pending[corrID] = waiter
	c.mu.Unlock()

	err = c.ch.PublishWithContext(ctx,
		"",    // default exchange, direct to the collaborator queue
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       c.replyQueue,
			Timestamp:     time.Now(),
			Body:          jsonBody,
		},
	)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case reply, ok := <-waiter:
		if !ok {
			return nil, ErrReplyChannelClosed
		}
		return reply, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (c *RPCClient) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
