package consumer

import (
	"container/heap"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func stateWithExpiration(instance string, expiration int64) *consumerState {
	cid := entry.ConsumerInstanceId{Group: "g", Instance: instance}
	return newConsumerState(cid, nil, newManualClock(), 0, expiration)
}

func TestExpirationQueueOrdersByExpiration(t *testing.T) {
	var queue expirationQueue
	heap.Push(&queue, stateWithExpiration("a", 300))
	heap.Push(&queue, stateWithExpiration("b", 100))
	heap.Push(&queue, stateWithExpiration("c", 200))

	require.Equal(t, int64(100), queue.peek().expiration)
	var popped []int64
	for queue.Len() > 0 {
		popped = append(popped, heap.Pop(&queue).(*consumerState).expiration)
	}
	assert.Equal(t, []int64{100, 200, 300}, popped)
}

func TestExpirationQueueTracksHeapIndex(t *testing.T) {
	var queue expirationQueue
	states := []*consumerState{
		stateWithExpiration("a", 300),
		stateWithExpiration("b", 100),
		stateWithExpiration("c", 200),
	}
	for _, state := range states {
		heap.Push(&queue, state)
	}
	for i, state := range queue {
		assert.Equal(t, i, state.heapIndex)
	}

	// Withdrawing by index leaves the remaining entries addressable.
	withdrawn := states[2]
	heap.Remove(&queue, withdrawn.heapIndex)
	assert.Equal(t, -1, withdrawn.heapIndex)
	require.Equal(t, 2, queue.Len())
	for i, state := range queue {
		assert.Equal(t, i, state.heapIndex)
	}

	popped := heap.Pop(&queue).(*consumerState)
	assert.Equal(t, int64(100), popped.expiration)
	assert.Equal(t, -1, popped.heapIndex)
}

func TestExpirationQueuePeekEmpty(t *testing.T) {
	var queue expirationQueue
	assert.Nil(t, queue.peek())
}
