package consumer

import (
	"errors"
	"github.com/hujiexuan/kafka-rest/broker"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/hujiexuan/kafka-rest/util"
	"sync"
	"time"
)

// consumerState owns one broker connection and its lazily created per-topic
// streams. The expiration field and heapIndex are guarded by the manager's
// lock, never mutated while heap-resident; everything else is guarded by the
// state's own mutex.
type consumerState struct {
	id              entry.ConsumerInstanceId
	clock           util.Clock
	iteratorTimeout time.Duration

	// Managed under the manager lock. inFlight counts the operations the
	// state is currently withdrawn from the expiration heap for; it goes
	// back on the heap only when the count returns to zero.
	expiration int64
	heapIndex  int
	inFlight   int

	mu        sync.Mutex
	connector broker.ConsumerConnector
	streams   map[string]*topicStream
}

// topicStream pairs a stream with the mutex serializing reads against it.
// Overlapping reads on the same instance+topic queue up here instead of
// racing the underlying iterator.
type topicStream struct {
	mu     sync.Mutex
	stream broker.Stream
}

func newConsumerState(id entry.ConsumerInstanceId, connector broker.ConsumerConnector,
	clock util.Clock, iteratorTimeout time.Duration, expiration int64) *consumerState {

	return &consumerState{
		id:              id,
		clock:           clock,
		iteratorTimeout: iteratorTimeout,
		expiration:      expiration,
		heapIndex:       -1,
		connector:       connector,
		streams:         make(map[string]*topicStream),
	}
}

// readTopic collects up to maxMessages records within budgetMs. The bound is
// best effort: it can overrun by at most one iterator timeout because the
// underlying poll has fixed granularity. A short or empty result is success,
// never a timeout fault.
func (this *consumerState) readTopic(topic string, budgetMs int64, maxMessages int) ([]*entry.ConsumerRecord, error) {
	ts, err := this.getOrCreateStream(topic)
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	records := make([]*entry.ConsumerRecord, 0, maxMessages)
	started := this.clock.Millis()
	for this.clock.Millis()-started < budgetMs && len(records) < maxMessages {
		record, err := ts.stream.Next(this.iteratorTimeout)
		switch {
		case err == nil:
			records = append(records, record)
		case errors.Is(err, broker.ErrNoMessage):
			// Keep polling while the outer budget remains.
		case errors.Is(err, broker.ErrStreamClosed):
			if this.isClosed() {
				return nil, entry.ConsumerNotFound(this.id.Group, this.id.Instance)
			}
			return records, nil
		default:
			log.Errorf("Read on %s topic %s failed: %s\n", this.id, topic, err.Error())
			return records, nil
		}
	}
	return records, nil
}

// getOrCreateStream subscribes at most once per topic, with a fixed
// single-partition-stream multiplicity.
func (this *consumerState) getOrCreateStream(topic string) (*topicStream, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	if this.streams == nil {
		// Closed concurrently: the instance is gone, not empty.
		return nil, entry.ConsumerNotFound(this.id.Group, this.id.Instance)
	}
	ts, ok := this.streams[topic]
	if !ok {
		stream, err := this.connector.Subscribe(topic)
		if err != nil {
			return nil, err
		}
		ts = &topicStream{stream: stream}
		this.streams[topic] = ts
	}
	return ts, nil
}

// close tears down the connection and irreversibly clears the stream mapping.
// The manager guarantees this runs at most once per state by removing the
// state from the registry before scheduling the close.
func (this *consumerState) close() {
	this.mu.Lock()
	connector := this.connector
	this.connector = nil
	this.streams = nil
	this.mu.Unlock()

	if connector == nil {
		return
	}
	if err := connector.Close(); err != nil {
		log.Errorf("Closing consumer %s failed: %s\n", this.id, err.Error())
	}
}

func (this *consumerState) isClosed() bool {
	this.mu.Lock()
	defer this.mu.Unlock()
	return this.streams == nil
}

// expired, updateExpiration and untilExpiration are called with the manager
// lock held, and only while the state is not heap-resident for mutation.
func (this *consumerState) expired(nowMs int64) bool {
	return this.expiration <= nowMs
}

func (this *consumerState) updateExpiration(expiration int64) {
	this.expiration = expiration
}

func (this *consumerState) untilExpiration(nowMs int64) int64 {
	return this.expiration - nowMs
}
