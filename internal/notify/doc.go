// Package notify moves migration events from request handlers to subscribed team members.
//
// Services hand events to an Outbox, which publishes them from a single worker goroutine
// so request latency never depends on the broker. The shipped transport is a durable
// RabbitMQ queue; a Consumer on the other side resolves subscribers and hands each
// rendered Message to a Sender.
package notify
