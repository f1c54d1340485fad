package mqtt

import "errors"

// ErrAckTimeout is returned when no consumer acknowledges a plan in time.
var ErrAckTimeout = errors.New("timeout waiting for plan ack")

// ErrNoAckTopic is returned by WaitForAck when the publisher was configured
// without an ack topic.
var ErrNoAckTopic = errors.New("no ack topic configured")
