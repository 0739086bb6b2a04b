package consumer

import (
	"errors"
	"github.com/hujiexuan/kafka-rest/broker"
	"github.com/hujiexuan/kafka-rest/entry"
	"sync"
	"sync/atomic"
	"time"
)

type manualClock struct {
	ms int64
}

func newManualClock() *manualClock {
	return &manualClock{ms: 1000000}
}

func (this *manualClock) Millis() int64 {
	return atomic.LoadInt64(&this.ms)
}

func (this *manualClock) advance(ms int64) {
	atomic.AddInt64(&this.ms, ms)
}

// mockFactory fakes the broker: per-topic record queues, connectors that
// count close calls, and streams whose empty polls advance the manual clock
// by one iterator timeout so budget arithmetic is deterministic.
type mockFactory struct {
	clock   *manualClock
	microMs int64

	mu         sync.Mutex
	failOpen   bool
	connectors []*mockConnector
	topics     map[string][]*entry.ConsumerRecord

	closeCalls int32
}

func newMockFactory(clock *manualClock) *mockFactory {
	return &mockFactory{
		clock:   clock,
		microMs: 50,
		topics:  make(map[string][]*entry.ConsumerRecord),
	}
}

func (this *mockFactory) produce(topic string, values ...string) {
	this.mu.Lock()
	defer this.mu.Unlock()
	for _, value := range values {
		this.topics[topic] = append(this.topics[topic], &entry.ConsumerRecord{
			Value:     []byte(value),
			Topic:     topic,
			Partition: 0,
			Offset:    int64(len(this.topics[topic])),
		})
	}
}

func (this *mockFactory) pop(topic string) *entry.ConsumerRecord {
	this.mu.Lock()
	defer this.mu.Unlock()
	queue := this.topics[topic]
	if len(queue) == 0 {
		return nil
	}
	record := queue[0]
	this.topics[topic] = queue[1:]
	return record
}

func (this *mockFactory) closes() int32 {
	return atomic.LoadInt32(&this.closeCalls)
}

func (this *mockFactory) lastConnector() *mockConnector {
	this.mu.Lock()
	defer this.mu.Unlock()
	if len(this.connectors) == 0 {
		return nil
	}
	return this.connectors[len(this.connectors)-1]
}

func (this *mockFactory) Open(group, instance string) (broker.ConsumerConnector, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	if this.failOpen {
		return nil, errors.New("connection refused")
	}
	connector := &mockConnector{
		factory: this,
		streams: make(map[string]*mockStream),
	}
	this.connectors = append(this.connectors, connector)
	return connector, nil
}

type mockConnector struct {
	factory *mockFactory
	closed  int32

	mu      sync.Mutex
	streams map[string]*mockStream
}

func (this *mockConnector) Subscribe(topic string) (broker.Stream, error) {
	if atomic.LoadInt32(&this.closed) != 0 {
		return nil, broker.ErrStreamClosed
	}
	stream := &mockStream{
		connector: this,
		topic:     topic,
		started:   make(chan struct{}),
	}
	this.mu.Lock()
	this.streams[topic] = stream
	this.mu.Unlock()
	return stream, nil
}

func (this *mockConnector) Close() error {
	atomic.StoreInt32(&this.closed, 1)
	atomic.AddInt32(&this.factory.closeCalls, 1)
	return nil
}

func (this *mockConnector) isClosed() bool {
	return atomic.LoadInt32(&this.closed) != 0
}

func (this *mockConnector) stream(topic string) *mockStream {
	this.mu.Lock()
	defer this.mu.Unlock()
	return this.streams[topic]
}

type mockStream struct {
	connector *mockConnector
	topic     string

	startOnce sync.Once
	started   chan struct{}

	// When set, Next blocks here first so tests can overlap operations
	// with an in-flight read.
	gate chan struct{}
}

func (this *mockStream) Next(timeout time.Duration) (*entry.ConsumerRecord, error) {
	this.startOnce.Do(func() { close(this.started) })
	if this.gate != nil {
		<-this.gate
	}
	if this.connector.isClosed() {
		return nil, broker.ErrStreamClosed
	}
	if record := this.connector.factory.pop(this.topic); record != nil {
		return record, nil
	}
	this.connector.factory.clock.advance(this.connector.factory.microMs)
	return nil, broker.ErrNoMessage
}

func (this *mockStream) Close() error {
	return nil
}

// mockStats records the metric names handed to the collector, which carry no
// client-level prefix of their own.
type mockStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockStats() *mockStats {
	return &mockStats{counts: make(map[string]int)}
}

func (this *mockStats) IncrementCounter(prefix string) {
	this.mu.Lock()
	defer this.mu.Unlock()
	this.counts[prefix]++
}

func (this *mockStats) Gauge(prefix string, value int64) {
	this.mu.Lock()
	defer this.mu.Unlock()
	this.counts[prefix]++
}

func (this *mockStats) Close() {}

func (this *mockStats) count(name string) int {
	this.mu.Lock()
	defer this.mu.Unlock()
	return this.counts[name]
}

func (this *mockStats) names() []string {
	this.mu.Lock()
	defer this.mu.Unlock()
	names := make([]string, 0, len(this.counts))
	for name := range this.counts {
		names = append(names, name)
	}
	return names
}

type mockObserver struct {
	mu     sync.Mutex
	topics map[string]bool
	err    error
}

func newMockObserver(topics ...string) *mockObserver {
	this := &mockObserver{topics: make(map[string]bool)}
	for _, topic := range topics {
		this.topics[topic] = true
	}
	return this
}

func (this *mockObserver) TopicExists(topic string) (bool, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	if this.err != nil {
		return false, this.err
	}
	return this.topics[topic], nil
}
