// Package mail delivers outbound messages such as verification codes.
package mail

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull is returned by Dispatcher.Send when no queue slot is free.
	ErrQueueFull = errors.New("mail: queue full")

	// ErrStopped is returned by Dispatcher.Send after Stop.
	ErrStopped = errors.New("mail: dispatcher stopped")
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations may deliver synchronously
// (SMTP, Log) or hand the message off for later delivery (Dispatcher).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
