package producer

import (
	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newMockProducer(t *testing.T) (*kafkaProducer, *mocks.SyncProducer) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	syncProducer := mocks.NewSyncProducer(t, conf)
	asyncProducer := mocks.NewAsyncProducer(t, conf)
	return &kafkaProducer{
		syncProducer:  syncProducer,
		asyncProducer: asyncProducer,
	}, syncProducer
}

func TestSyncSendSuccess(t *testing.T) {
	producer, syncProducer := newMockProducer(t)
	defer producer.Close()

	syncProducer.ExpectSendMessageAndSucceed()
	_, _, err := producer.SyncSend("orders", []byte("k1"), []byte("v1"))
	assert.NoError(t, err)
}

func TestSyncSendFailure(t *testing.T) {
	producer, syncProducer := newMockProducer(t)
	defer producer.Close()

	syncProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	_, _, err := producer.SyncSend("orders", nil, []byte("v1"))
	require.Error(t, err)
	assert.Equal(t, sarama.ErrOutOfBrokers, err)
}
