package broker

import (
	"github.com/Shopify/sarama"
	"github.com/hujiexuan/kafka-rest/constants"
	goCache "github.com/patrickmn/go-cache"
)

// MetadataObserver answers topic existence queries. The broker client will
// happily poll a nonexistent topic forever without erroring, so the manager
// consults this oracle before scheduling any read.
type MetadataObserver interface {
	TopicExists(topic string) (bool, error)
}

type topicLister interface {
	Topics() ([]string, error)
}

type metadataObserver struct {
	lister topicLister
	cache  *goCache.Cache
}

func NewMetadataObserver(client sarama.Client) MetadataObserver {
	return newMetadataObserver(client)
}

func newMetadataObserver(lister topicLister) MetadataObserver {
	return &metadataObserver{
		lister: lister,
		cache:  goCache.New(constants.DefaultMetadataCacheExpiration, 0),
	}
}

func (this *metadataObserver) TopicExists(topic string) (bool, error) {
	if _, found := this.cache.Get(topic); found {
		return true, nil
	}
	topics, err := this.lister.Topics()
	if err != nil {
		return false, err
	}
	exists := false
	for _, name := range topics {
		if name == topic {
			exists = true
			break
		}
	}
	// Only positive answers are cached; a topic created moments after a
	// miss should be visible on the next lookup.
	if exists {
		this.cache.Set(topic, true, goCache.DefaultExpiration)
	}
	return exists, nil
}
