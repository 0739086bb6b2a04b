package producer

import (
	"github.com/Shopify/sarama"
	"github.com/hujiexuan/kafka-rest/config"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/logger"
	"github.com/hujiexuan/kafka-rest/stats"
)

var log = logger.GetLogger()

type Producer interface {
	SyncSend(topic string, key, value []byte) (int32, int64, error)
	AsyncSend(topic string, key, value []byte)
	Close()
}

type kafkaProducer struct {
	syncProducer  sarama.SyncProducer
	asyncProducer sarama.AsyncProducer
	statsD        stats.StatsdCollector
}

func NewProducer(cfg *config.Config, statsD stats.StatsdCollector) (Producer, error) {
	conf := sarama.NewConfig()
	conf.Version = constants.KafkaVersion
	conf.ClientID = cfg.ClientId
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true

	syncProducer, err := sarama.NewSyncProducer(cfg.BootstrapServers, conf)
	if err != nil {
		return nil, err
	}
	asyncProducer, err := sarama.NewAsyncProducer(cfg.BootstrapServers, conf)
	if err != nil {
		syncProducer.Close()
		return nil, err
	}

	this := &kafkaProducer{
		syncProducer:  syncProducer,
		asyncProducer: asyncProducer,
		statsD:        statsD,
	}
	go this.drainAsync()
	return this, nil
}

func (this *kafkaProducer) SyncSend(topic string, key, value []byte) (int32, int64, error) {
	partition, offset, err := this.syncProducer.SendMessage(message(topic, key, value))
	if err != nil {
		this.count(constants.SendFailureAppender)
		return partition, offset, err
	}
	this.count(constants.SendSuccessAppender)
	return partition, offset, nil
}

func (this *kafkaProducer) AsyncSend(topic string, key, value []byte) {
	this.asyncProducer.Input() <- message(topic, key, value)
}

func (this *kafkaProducer) drainAsync() {
	for {
		select {
		case result, ok := <-this.asyncProducer.Successes():
			if !ok {
				return
			}
			this.count(constants.SendSuccessAppender)
			log.Debugf("Produced to %s:%d at offset %d\n", result.Topic, result.Partition, result.Offset)
		case err, ok := <-this.asyncProducer.Errors():
			if !ok {
				return
			}
			this.count(constants.SendFailureAppender)
			log.Errorf("Async produce failed: %s\n", err.Error())
		}
	}
}

func (this *kafkaProducer) Close() {
	if err := this.syncProducer.Close(); err != nil {
		log.Errorf("Error closing sync producer: %s\n", err.Error())
	}
	if err := this.asyncProducer.Close(); err != nil {
		log.Errorf("Error closing async producer: %s\n", err.Error())
	}
}

func (this *kafkaProducer) count(appender string) {
	if this.statsD != nil {
		this.statsD.IncrementCounter(constants.ProducerStatsPrefix + appender)
	}
}

func message(topic string, key, value []byte) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}
	return msg
}
