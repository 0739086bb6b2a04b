package consumer

import (
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestState(t *testing.T, clock *manualClock, factory *mockFactory) *consumerState {
	connector, err := factory.Open("g1", "1")
	require.NoError(t, err)
	cid := entry.ConsumerInstanceId{Group: "g1", Instance: "1"}
	return newConsumerState(cid, connector, clock, 50*time.Millisecond, clock.Millis()+10000)
}

func TestReadTopicBudgetIsBestEffort(t *testing.T) {
	clock := newManualClock()
	factory := newMockFactory(clock)
	state := newTestState(t, clock, factory)

	started := clock.Millis()
	records, err := state.readTopic(testTopic, 200, 100)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The loop may overrun the budget by at most one poll increment.
	elapsed := clock.Millis() - started
	assert.GreaterOrEqual(t, elapsed, int64(200))
	assert.LessOrEqual(t, elapsed, int64(200+factory.microMs))
}

func TestReadTopicStopsAtMaxMessages(t *testing.T) {
	clock := newManualClock()
	factory := newMockFactory(clock)
	factory.produce(testTopic, "a", "b", "c", "d", "e")
	state := newTestState(t, clock, factory)

	started := clock.Millis()
	records, err := state.readTopic(testTopic, 1000, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	// Filling the quota returns immediately, without draining the budget.
	assert.Equal(t, started, clock.Millis())
}

func TestReadTopicReusesStreamPerTopic(t *testing.T) {
	clock := newManualClock()
	factory := newMockFactory(clock)
	factory.produce(testTopic, "a", "b")
	state := newTestState(t, clock, factory)

	records, err := state.readTopic(testTopic, 100, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	first := factory.lastConnector().stream(testTopic)

	records, err = state.readTopic(testTopic, 100, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Same(t, first, factory.lastConnector().stream(testTopic))
}

func TestReadTopicOnClosedStateIsGoneNotEmpty(t *testing.T) {
	clock := newManualClock()
	factory := newMockFactory(clock)
	state := newTestState(t, clock, factory)

	state.close()
	records, err := state.readTopic(testTopic, 100, 10)
	assert.Nil(t, records)
	assert.True(t, entry.IsNotFound(err))
}

func TestCloseClearsConnectionOnce(t *testing.T) {
	clock := newManualClock()
	factory := newMockFactory(clock)
	state := newTestState(t, clock, factory)

	state.close()
	state.close()
	assert.EqualValues(t, 1, factory.closes())
	assert.True(t, state.isClosed())
}
