package broker

import (
	"errors"
	"github.com/hujiexuan/kafka-rest/entry"
	"time"
)

var (
	// ErrNoMessage means nothing arrived within the poll timeout. Not a
	// fault: the read loop keeps polling while its budget remains.
	ErrNoMessage = errors.New("no message ready within poll timeout")
	// ErrStreamClosed means the underlying stream has been torn down.
	ErrStreamClosed = errors.New("stream closed")
)

// Stream is a per-topic message sequence handle.
type Stream interface {
	Next(timeout time.Duration) (*entry.ConsumerRecord, error)
	Close() error
}

// ConsumerConnector is one broker connection scoped to a (group, instance)
// pair. Subscribe joins the group for a single topic; the caller is expected
// to subscribe at most once per topic.
type ConsumerConnector interface {
	Subscribe(topic string) (Stream, error)
	Close() error
}

// ConnectorFactory opens connections for new consumer instances. It is the
// seam tests use to substitute the broker.
type ConnectorFactory interface {
	Open(group, instance string) (ConsumerConnector, error)
}
