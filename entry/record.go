package entry

// ConsumerRecord is a single message pulled from a topic stream. Decoded is
// only populated when the manager was built with a non-binary schema type.
type ConsumerRecord struct {
	Key       []byte
	Value     []byte
	Decoded   interface{}
	Topic     string
	Partition int32
	Offset    int64
}
