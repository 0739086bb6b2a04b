package config

import (
	"errors"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/hujiexuan/kafka-rest/util"
	"gopkg.in/yaml.v3"
	"os"
)

// Config is consumed once at construction time; nothing in here is
// reconfigurable at runtime.
type Config struct {
	BootstrapServers []string `yaml:"bootstrap.servers"`
	ClientId         string   `yaml:"client.id"`
	OffsetReset      string   `yaml:"auto.offset.reset"`

	// Read budget and per-poll granularity. The budget is best effort: a
	// read may overrun it by at most one iterator timeout.
	ReadBudgetMs      int `yaml:"consumer.request.timeout.ms"`
	MaxMessages       int `yaml:"consumer.request.max.messages"`
	IteratorTimeoutMs int `yaml:"consumer.iterator.timeout.ms"`

	// How long an instance may sit idle after its last completed read
	// before the reaper removes it.
	InstanceTimeoutMs int `yaml:"consumer.instance.timeout.ms"`

	WorkerCount int `yaml:"consumer.threads"`

	SchemaType entry.SerializationSchema `yaml:"schema.type"`
	AvroSchema string                    `yaml:"avro.schema"`
	JsonSchema string                    `yaml:"json.schema"`

	StatsdAddr string `yaml:"statsd.addr"`
}

func Default() *Config {
	return &Config{
		ClientId:          constants.DefaultClientId,
		OffsetReset:       constants.OffsetOldest,
		ReadBudgetMs:      constants.DefaultReadBudgetMs,
		MaxMessages:       constants.DefaultMaxMessages,
		IteratorTimeoutMs: constants.DefaultIteratorTimeoutMs,
		InstanceTimeoutMs: constants.DefaultInstanceTimeoutMs,
		WorkerCount:       constants.DefaultWorkerCount,
		SchemaType:        entry.Binary,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := Default()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

func (this *Config) Validate() error {
	if len(this.BootstrapServers) == 0 {
		return errors.New(constants.EmptyBootstrapServers)
	}
	if !util.Contains(this.OffsetReset, []interface{}{constants.OffsetOldest, constants.OffsetNewest}) {
		return errors.New(constants.InvalidOffsetReset)
	}
	if this.ReadBudgetMs <= 0 {
		return errors.New(constants.InvalidReadBudget)
	}
	if this.MaxMessages <= 0 {
		return errors.New(constants.InvalidMaxMessages)
	}
	if this.IteratorTimeoutMs <= 0 {
		return errors.New(constants.InvalidIteratorTimout)
	}
	if this.InstanceTimeoutMs <= 0 {
		return errors.New(constants.InvalidInstanceTimout)
	}
	if this.WorkerCount <= 0 {
		return errors.New(constants.InvalidWorkerCount)
	}
	switch this.SchemaType {
	case entry.Avro, entry.Json, entry.Binary:
	default:
		return errors.New(constants.ErrUnidentifiedSchema)
	}
	return nil
}
