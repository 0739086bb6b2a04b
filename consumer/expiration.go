package consumer

// expirationQueue is an index-addressable min-heap of consumer states ordered
// by expiration. States track their own heap position so withdrawal for an
// in-flight read or delete is O(log n). Ties between equal expirations are
// unordered.
type expirationQueue []*consumerState

func (this expirationQueue) Len() int {
	return len(this)
}

func (this expirationQueue) Less(i, j int) bool {
	return this[i].expiration < this[j].expiration
}

func (this expirationQueue) Swap(i, j int) {
	this[i], this[j] = this[j], this[i]
	this[i].heapIndex = i
	this[j].heapIndex = j
}

func (this *expirationQueue) Push(x interface{}) {
	state := x.(*consumerState)
	state.heapIndex = len(*this)
	*this = append(*this, state)
}

func (this *expirationQueue) Pop() interface{} {
	old := *this
	n := len(old)
	state := old[n-1]
	old[n-1] = nil
	state.heapIndex = -1
	*this = old[:n-1]
	return state
}

func (this expirationQueue) peek() *consumerState {
	if len(this) == 0 {
		return nil
	}
	return this[0]
}
