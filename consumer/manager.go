package consumer

import (
	"container/heap"
	"errors"
	"github.com/hujiexuan/kafka-rest/broker"
	"github.com/hujiexuan/kafka-rest/config"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/consumer/executor"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/hujiexuan/kafka-rest/logger"
	"github.com/hujiexuan/kafka-rest/serde"
	"github.com/hujiexuan/kafka-rest/stats"
	"github.com/hujiexuan/kafka-rest/util"
	uuid "github.com/satori/go.uuid"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var log = logger.GetLogger()

// ConsumerManager maps instance ids to consumer states, dispatches bounded
// read requests onto a worker pool, and reaps instances idle past their
// timeout. A single mutex guards the registry map, the expiration heap and
// the reaper wake-up; blocking broker I/O always runs off that lock.
type ConsumerManager struct {
	clock      util.Clock
	factory    broker.ConnectorFactory
	mdObserver broker.MetadataObserver
	statsD     stats.StatsdCollector
	decoder    serde.Decoder

	readBudgetMs      int64
	maxMessages       int
	iteratorTimeout   time.Duration
	instanceTimeoutMs int64

	nextId int64

	mu           sync.Mutex
	consumers    map[entry.ConsumerInstanceId]*consumerState
	byExpiration expirationQueue
	stopped      bool

	taskExecutor *executor.TaskExecutor
	reaperWake   chan struct{}
	reaperStop   chan struct{}
	reaperDone   chan struct{}
}

func NewConsumerManager(cfg *config.Config, factory broker.ConnectorFactory,
	mdObserver broker.MetadataObserver, clock util.Clock,
	statsD stats.StatsdCollector, decoder serde.Decoder) *ConsumerManager {

	this := &ConsumerManager{
		clock:             clock,
		factory:           factory,
		mdObserver:        mdObserver,
		statsD:            statsD,
		decoder:           decoder,
		readBudgetMs:      int64(cfg.ReadBudgetMs),
		maxMessages:       cfg.MaxMessages,
		iteratorTimeout:   time.Duration(cfg.IteratorTimeoutMs) * time.Millisecond,
		instanceTimeoutMs: int64(cfg.InstanceTimeoutMs),
		consumers:         make(map[entry.ConsumerInstanceId]*consumerState),
		taskExecutor:      executor.NewTaskExecutor(cfg.WorkerCount),
		reaperWake:        make(chan struct{}, 1),
		reaperStop:        make(chan struct{}),
		reaperDone:        make(chan struct{}),
	}
	go this.reap()
	return this
}

// CreateConsumer opens a broker connection for the group and registers a new
// instance. Connection failure is fatal to the call and leaves no partial
// registration. Ids are process-wide monotonically increasing and never
// reused, even after deletion.
func (this *ConsumerManager) CreateConsumer(group string) (string, error) {
	id := strconv.FormatInt(atomic.AddInt64(&this.nextId, 1), 10)

	connector, err := this.factory.Open(group, id)
	if err != nil {
		return "", err
	}

	cid := entry.ConsumerInstanceId{Group: group, Instance: id}
	state := newConsumerState(cid, connector, this.clock, this.iteratorTimeout,
		this.clock.Millis()+this.instanceTimeoutMs)

	this.mu.Lock()
	if this.stopped {
		this.mu.Unlock()
		state.close()
		return "", errors.New(constants.ManagerStopped)
	}
	this.consumers[cid] = state
	heap.Push(&this.byExpiration, state)
	this.mu.Unlock()
	this.notifyReaper()

	this.count(constants.CreatedAppender)
	log.Infof("Created consumer %s\n", cid)
	return id, nil
}

// ReadTopic dispatches an asynchronous bounded read. The callback receives
// either an ordered record list (possibly empty) or a NotFound error. The
// returned task is nil when the request resolved synchronously; cancelling it
// before it runs prevents execution and reinserts the withdrawn state.
func (this *ConsumerManager) ReadTopic(group, instance, topic string, callback entry.ReadCallback) *executor.Task {
	cid := entry.ConsumerInstanceId{Group: group, Instance: instance}

	this.mu.Lock()
	state, ok := this.consumers[cid]
	if !ok {
		this.mu.Unlock()
		callback(nil, entry.ConsumerNotFound(group, instance))
		return nil
	}
	// Withdraw from the expiration heap immediately so the instance cannot
	// be reaped mid-read; overlapping reads on the same instance keep it
	// withdrawn until the last one resolves. Expiration is refreshed only
	// when the read completes; refreshing now would understate a slow read.
	this.withdraw(state)
	state.inFlight++
	priorExpiration := state.expiration
	this.mu.Unlock()

	correlationId := uuid.NewV4()

	// The broker client iterates forever (or returns nothing) on topics
	// that do not exist, so existence is checked explicitly up front.
	exists, err := this.mdObserver.TopicExists(topic)
	if err != nil || !exists {
		if err != nil {
			log.Errorf("Topic metadata lookup for %s failed [%s]: %s\n", topic, correlationId, err.Error())
		}
		// Reinsert with the prior expiration: leaving the state withdrawn
		// here would make it permanently unreapable.
		this.reinsert(cid, state, priorExpiration)
		callback(nil, entry.TopicNotFound(topic))
		return nil
	}

	log.Debugf("Dispatching read %s for %s topic %s\n", correlationId, cid, topic)
	started := this.clock.Millis()
	return this.taskExecutor.SubmitWithAbort(func() {
		records, readErr := state.readTopic(topic, this.readBudgetMs, this.maxMessages)

		// Reinsertion uses the expiration at completion time so a read that
		// outlives the idle timeout still extends the instance's life. A
		// state deleted mid-read is not resurrected: the registry entry is
		// gone and the read resolves NotFound.
		if !this.reinsert(cid, state, this.clock.Millis()+this.instanceTimeoutMs) && readErr == nil {
			records = nil
			readErr = entry.ConsumerNotFound(group, instance)
		}

		if readErr != nil {
			this.count(constants.ReadNotFoundAppender)
		} else {
			this.decode(records)
			this.count(constants.ReadSuccessAppender)
			this.gauge(constants.ReadLatencyAppender, this.clock.Millis()-started)
		}
		callback(records, readErr)
	}, func() {
		// Cancelled before running: undo the withdrawal.
		this.reinsert(cid, state, priorExpiration)
	})
}

// DeleteConsumer removes the instance from the registry and expiration heap,
// then closes its connection outside the lock. Removal-before-close is what
// guarantees the close runs at most once even against a racing reaper pass.
func (this *ConsumerManager) DeleteConsumer(group, instance string) error {
	cid := entry.ConsumerInstanceId{Group: group, Instance: instance}

	this.mu.Lock()
	state, ok := this.consumers[cid]
	if !ok {
		this.mu.Unlock()
		return entry.ConsumerNotFound(group, instance)
	}
	delete(this.consumers, cid)
	this.withdraw(state)
	this.mu.Unlock()
	this.notifyReaper()

	state.close()
	this.count(constants.DeletedAppender)
	log.Infof("Deleted consumer %s\n", cid)
	return nil
}

// Stop shuts down the reaper, closes every remaining instance and drains the
// worker pool. The manager accepts no new work afterwards.
func (this *ConsumerManager) Stop() {
	this.mu.Lock()
	if this.stopped {
		this.mu.Unlock()
		return
	}
	this.stopped = true
	this.mu.Unlock()

	close(this.reaperStop)
	<-this.reaperDone

	this.mu.Lock()
	remaining := make([]*consumerState, 0, len(this.consumers))
	for cid, state := range this.consumers {
		delete(this.consumers, cid)
		this.withdraw(state)
		remaining = append(remaining, state)
	}
	this.mu.Unlock()

	for _, state := range remaining {
		state.close()
	}
	this.taskExecutor.Stop()
	log.Info("Consumer manager stopped")
}

// reap drains expired entries, schedules their close on the worker pool and
// sleeps until the next expiration or a registry mutation, whichever first.
func (this *ConsumerManager) reap() {
	defer close(this.reaperDone)
	for {
		this.mu.Lock()
		now := this.clock.Millis()
		var expired []*consumerState
		for this.byExpiration.Len() > 0 && this.byExpiration.peek().expired(now) {
			state := heap.Pop(&this.byExpiration).(*consumerState)
			delete(this.consumers, state.id)
			expired = append(expired, state)
		}
		var wait time.Duration
		if next := this.byExpiration.peek(); next != nil {
			wait = time.Duration(next.untilExpiration(now)) * time.Millisecond
		}
		this.mu.Unlock()

		// Closes run on the pool, never on the reaper itself: a slow
		// teardown must not stall expiration detection.
		for _, state := range expired {
			log.Infof("Reaping idle consumer %s\n", state.id)
			this.count(constants.ExpiredAppender)
			this.taskExecutor.Submit(state.close)
		}

		var deadline <-chan time.Time
		var timer *time.Timer
		if wait > 0 {
			timer = time.NewTimer(wait)
			deadline = timer.C
		}
		select {
		case <-this.reaperStop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-this.reaperWake:
		case <-deadline:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// withdraw removes the state from the expiration heap if resident. The
// caller holds the manager lock. A state with any operation in flight
// against it is never heap-resident.
func (this *ConsumerManager) withdraw(state *consumerState) {
	if state.heapIndex >= 0 {
		heap.Remove(&this.byExpiration, state.heapIndex)
	}
}

// reinsert resolves one in-flight withdrawal. The state goes back on the
// heap only when no operations remain outstanding against it, so an instance
// is never heap-resident mid-read; competing completions keep the furthest
// expiration. Returns false when the state was concurrently deleted or
// reaped.
func (this *ConsumerManager) reinsert(cid entry.ConsumerInstanceId, state *consumerState, expiration int64) bool {
	this.mu.Lock()
	if state.inFlight > 0 {
		state.inFlight--
	}
	if this.consumers[cid] != state {
		this.mu.Unlock()
		return false
	}
	if expiration > state.expiration {
		state.updateExpiration(expiration)
	}
	if state.inFlight == 0 {
		if state.heapIndex >= 0 {
			// Never mutate the key of a resident entry without
			// restoring heap order.
			heap.Fix(&this.byExpiration, state.heapIndex)
		} else {
			heap.Push(&this.byExpiration, state)
		}
	}
	this.mu.Unlock()
	this.notifyReaper()
	return true
}

func (this *ConsumerManager) notifyReaper() {
	select {
	case this.reaperWake <- struct{}{}:
	default:
	}
}

func (this *ConsumerManager) decode(records []*entry.ConsumerRecord) {
	if this.decoder == nil {
		return
	}
	for _, record := range records {
		decoded, err := this.decoder.Decode(record.Value)
		if err != nil {
			log.Errorf("Decoding record at %s:%d:%d failed: %s\n",
				record.Topic, record.Partition, record.Offset, err.Error())
			continue
		}
		record.Decoded = decoded
	}
}

func (this *ConsumerManager) count(appender string) {
	if this.statsD != nil {
		this.statsD.IncrementCounter(constants.ConsumerStatsPrefix + appender)
	}
}

func (this *ConsumerManager) gauge(appender string, value int64) {
	if this.statsD != nil {
		this.statsD.Gauge(constants.ConsumerStatsPrefix+appender, value)
	}
}
