package broker

import (
	"errors"
	"github.com/Shopify/sarama"
	saramaCluster "github.com/bsm/sarama-cluster"
	"github.com/hujiexuan/kafka-rest/config"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/hujiexuan/kafka-rest/logger"
	"sync"
	"time"
)

var log = logger.GetLogger()

type clusterFactory struct {
	hosts  []string
	config *sarama.Config
}

// NewClusterFactory builds a ConnectorFactory backed by sarama-cluster group
// consumers.
func NewClusterFactory(cfg *config.Config) (ConnectorFactory, error) {
	conf := sarama.NewConfig()
	conf.Version = constants.KafkaVersion
	conf.ClientID = cfg.ClientId
	conf.Consumer.Return.Errors = true
	switch cfg.OffsetReset {
	case constants.OffsetNewest:
		conf.Consumer.Offsets.Initial = sarama.OffsetNewest
	case constants.OffsetOldest:
		conf.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		return nil, errors.New(constants.InvalidOffsetReset)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &clusterFactory{
		hosts:  cfg.BootstrapServers,
		config: conf,
	}, nil
}

func (this *clusterFactory) Open(group, instance string) (ConsumerConnector, error) {
	conf := *this.config
	conf.ClientID = this.config.ClientID + "-" + group + "-" + instance

	// Probing the cluster here makes connection failure fatal to
	// createConsumer instead of surfacing lazily on the first read.
	client, err := sarama.NewClient(this.hosts, &conf)
	if err != nil {
		return nil, err
	}
	return &clusterConnector{
		hosts:  this.hosts,
		group:  group,
		client: client,
		config: &conf,
	}, nil
}

type clusterConnector struct {
	hosts  []string
	group  string
	client sarama.Client
	config *sarama.Config

	mu      sync.Mutex
	closed  bool
	streams []*clusterStream
}

func (this *clusterConnector) Subscribe(topic string) (Stream, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	if this.closed {
		return nil, ErrStreamClosed
	}

	clusterConfig := saramaCluster.NewConfig()
	clusterConfig.Config = *this.config
	consumer, err := saramaCluster.NewConsumer(this.hosts, this.group, []string{topic}, clusterConfig)
	if err != nil {
		return nil, err
	}

	// Errors are drained so the consumer never stalls; they have no
	// propagation path to the read loop.
	go func() {
		for err := range consumer.Errors() {
			log.Errorf("Consumer error on topic %s: %s\n", topic, err.Error())
		}
	}()

	stream := &clusterStream{topic: topic, consumer: consumer}
	this.streams = append(this.streams, stream)
	return stream, nil
}

func (this *clusterConnector) Close() error {
	this.mu.Lock()
	if this.closed {
		this.mu.Unlock()
		return nil
	}
	this.closed = true
	streams := this.streams
	this.streams = nil
	this.mu.Unlock()

	var firstErr error
	for _, stream := range streams {
		if err := stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := this.client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type clusterStream struct {
	topic    string
	consumer *saramaCluster.Consumer
	closeOne sync.Once
}

func (this *clusterStream) Next(timeout time.Duration) (*entry.ConsumerRecord, error) {
	select {
	case msg, ok := <-this.consumer.Messages():
		if !ok {
			return nil, ErrStreamClosed
		}
		this.consumer.MarkOffset(msg, "consumed")
		return &entry.ConsumerRecord{
			Key:       msg.Key,
			Value:     msg.Value,
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
		}, nil
	case <-time.After(timeout):
		return nil, ErrNoMessage
	}
}

func (this *clusterStream) Close() (err error) {
	this.closeOne.Do(func() {
		err = this.consumer.Close()
	})
	return
}
