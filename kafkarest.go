package kafka_rest

import (
	"github.com/Shopify/sarama"
	"github.com/hujiexuan/kafka-rest/broker"
	"github.com/hujiexuan/kafka-rest/config"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/consumer"
	"github.com/hujiexuan/kafka-rest/producer"
	"github.com/hujiexuan/kafka-rest/serde"
	"github.com/hujiexuan/kafka-rest/stats"
	"github.com/hujiexuan/kafka-rest/util"
)

// Proxy bundles the consumer-instance manager and the shared clients it is
// wired to. The HTTP transport in front of it is out of scope here; this is
// the surface it calls.
type Proxy struct {
	Consumers *consumer.ConsumerManager

	client sarama.Client
	statsD stats.StatsdCollector
}

func NewProxy(cfg *config.Config) (*Proxy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metadataConf := sarama.NewConfig()
	metadataConf.Version = constants.KafkaVersion
	metadataConf.ClientID = cfg.ClientId
	client, err := sarama.NewClient(cfg.BootstrapServers, metadataConf)
	if err != nil {
		return nil, err
	}

	factory, err := broker.NewClusterFactory(cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	decoder, err := serde.NewDecoder(cfg.SchemaType, cfg.AvroSchema, cfg.JsonSchema)
	if err != nil {
		client.Close()
		return nil, err
	}

	var statsD stats.StatsdCollector
	if cfg.StatsdAddr != "" {
		statsD, _ = stats.InitializeStatsdCollector(&stats.StatsdCollectorConfig{
			StatsdAddr: cfg.StatsdAddr,
			Prefix:     constants.StatsPrefix,
		})
	}

	manager := consumer.NewConsumerManager(cfg, factory, broker.NewMetadataObserver(client),
		util.SystemClock(), statsD, decoder)

	return &Proxy{
		Consumers: manager,
		client:    client,
		statsD:    statsD,
	}, nil
}

// NewKafkaProducer builds the produce-side facade sharing the proxy config.
func NewKafkaProducer(cfg *config.Config, statsD stats.StatsdCollector) (producer.Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return producer.NewProducer(cfg, statsD)
}

func (this *Proxy) Close() {
	this.Consumers.Stop()
	this.client.Close()
	if this.statsD != nil {
		this.statsD.Close()
	}
}
