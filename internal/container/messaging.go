package container

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/jobs"
	"github.com/serroba/dynamic-links/internal/messaging"
	"github.com/serroba/dynamic-links/internal/shortener"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the publisher side of the job bus.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Backend == BackendMemory {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: do.MustInvoke[*RedisClient](i).Client,
		}, messaging.NewZapLoggerAdapter(do.MustInvoke[*zap.Logger](i)))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the worker side of the job bus with the job processor
// subscribed to TopicShortenURLRequested.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var group *messaging.ConsumerGroup

		if opts.Backend == BackendMemory {
			group = messaging.NewConsumerGroup(do.MustInvoke[*gochannel.GoChannel](i), logger)
		} else {
			subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*RedisClient](i).Client,
				ConsumerGroup: opts.ConsumerGroup,
			}, messaging.NewZapLoggerAdapter(logger))
			if err != nil {
				return nil, err
			}

			group = messaging.NewConsumerGroup(subscriber, logger)
		}

		processor := jobs.NewProcessor(
			do.MustInvoke[*shortener.StrategyFactory](i),
			do.MustInvoke[shortener.Storage](i),
			do.MustInvoke[shortener.Locker](i),
			logger,
		)

		group.Add(messaging.NewConsumer(group.Subscriber(), jobs.TopicShortenURLRequested, processor.Handle, logger))

		return group, nil
	})
}

// InProcessBusPackage provides the in-memory bus shared by publisher and consumer when the
// memory backend runs everything in one process. It is only built on first use.
func InProcessBusPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, messaging.NewZapLoggerAdapter(logger)), nil
	})
}
