/**
 * @description
 * This package provides the RabbitMQ plumbing for the customer-service: an event
 * consumer for fire-and-forget messages, a request/reply server for the
 * info-customer pattern, an RPC client for querying the wallet and loyalty
 * collaborators, and an event producer.
 *
 * This file implements the consuming side. Fire-and-forget events arrive through a
 * topic exchange binding; request/reply messages arrive on a dedicated queue and are
 * answered on the caller's reply-to queue, tagged with the caller's correlation id.
 */
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", fmt.Errorf("invalid AMQP scheme: %s", parsed.Scheme)
	}
	// A bare host gets the trailing slash for the default vhost; a named vhost
	// path stays untouched.
	if parsed.Path == "" {
		clean += "/"
	}
	return clean, nil
}

func NewConsumer(amqpURL string) (*Consumer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// ConsumeWithBindings binds a durable queue to a topic exchange and dispatches each
// delivery to the handler registered for its routing key. A handler returning false
// rejects the delivery without requeue.
func (c *Consumer) ConsumeWithBindings(exchange, queueName string, bindings map[string]func([]byte) bool) error {
	if len(bindings) == 0 {
		return fmt.Errorf("no bindings provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	handlers := make(map[string]func([]byte) bool)
	for routingKey, handler := range bindings {
		if handler == nil {
			continue
		}
		handlers[routingKey] = handler
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return err
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			handler, ok := handlers[d.RoutingKey]
			if !ok {
				log.Printf("No handler for routing key %s; acknowledging to drop", d.RoutingKey)
				d.Ack(false)
				continue
			}
			if handler(d.Body) {
				d.Ack(false)
			} else {
				log.Printf("Handler for routing key %s failed; dropping malformed message", d.RoutingKey)
				// Malformed payloads are rejected without requeue so they cannot
				// poison the queue.
				d.Nack(false, false)
			}
		}
	}()

	return nil
}

// ConsumeRPC serves a request/reply pattern on the given queue. The handler's reply
// bytes are published to the delivery's reply-to queue with the original correlation
// id. A handler error is answered with an error payload so the caller fails fast
// instead of waiting out its deadline.
func (c *Consumer) ConsumeRPC(queueName string, handler func([]byte) ([]byte, error)) error {
	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	if err := c.ch.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			reply, handlerErr := handler(d.Body)
			if handlerErr != nil {
				log.Printf("level=warn component=rabbitmq_consumer msg=\"rpc handler failed\" queue=%s correlation_id=%s err=%v", queueName, d.CorrelationId, handlerErr)
				reply = rpcErrorReply(handlerErr)
			}
			if d.ReplyTo == "" {
				log.Printf("level=warn component=rabbitmq_consumer msg=\"rpc request without reply-to\" queue=%s correlation_id=%s", queueName, d.CorrelationId)
				d.Ack(false)
				continue
			}
			err := c.ch.Publish("", d.ReplyTo, false, false, amqp.Publishing{
				ContentType:   "application/json",
				CorrelationId: d.CorrelationId,
				Body:          reply,
			})
			if err != nil {
				log.Printf("level=error component=rabbitmq_consumer msg=\"rpc reply publish failed\" queue=%s correlation_id=%s err=%v", queueName, d.CorrelationId, err)
			}
			d.Ack(false)
		}
	}()

	return nil
}

// rpcErrorReply shapes a handler failure into the JSON error payload returned to the
// caller of a request/reply pattern.
func rpcErrorReply(err error) []byte {
	body, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return []byte(`{"error":"internal server error"}`)
	}
	return body
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
