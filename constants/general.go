package constants

import (
	"github.com/Shopify/sarama"
	"time"
)

const (
	// Consumer defaults
	DefaultIteratorTimeoutMs = 50
	DefaultReadBudgetMs      = 1000
	DefaultMaxMessages       = 100
	DefaultInstanceTimeoutMs = 300000
	DefaultWorkerCount       = 4
	DefaultTaskBacklog       = 128

	// Offset reset values accepted in config
	OffsetOldest = "oldest"
	OffsetNewest = "newest"

	DefaultClientId = "kafkarest"

	// Metadata cache
	DefaultMetadataCacheExpiration = 30 * time.Second

	// Statsd. The client owns the application prefix; call sites emit
	// names rooted at the component, e.g. kafkarest + consumer.created.
	StatsPrefix          = "kafkarest"
	ConsumerStatsPrefix  = "consumer"
	ProducerStatsPrefix  = "producer"
	CreatedAppender      = ".created"
	DeletedAppender      = ".deleted"
	ExpiredAppender      = ".expired"
	ReadSuccessAppender  = ".read.success"
	ReadNotFoundAppender = ".read.notfound"
	ReadLatencyAppender  = ".read.latency"
	SendSuccessAppender  = ".send.success"
	SendFailureAppender  = ".send.failure"

	// Error messages
	EmptyBootstrapServers = "no bootstrap servers configured"
	NilConsumer           = "could not create kafka consumer"
	ManagerStopped        = "consumer manager is stopped"
	ErrUnidentifiedSchema = "unidentified serialization schema"
	InvalidOffsetReset    = "auto.offset.reset must be oldest or newest"
	InvalidReadBudget     = "consumer.request.timeout.ms must be positive"
	InvalidMaxMessages    = "consumer.request.max.messages must be positive"
	InvalidInstanceTimout = "consumer.instance.timeout.ms must be positive"
	InvalidIteratorTimout = "consumer.iterator.timeout.ms must be positive"
	InvalidWorkerCount    = "consumer.threads must be positive"
)

var KafkaVersion = sarama.V1_1_0_0
