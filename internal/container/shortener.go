package container

import (
	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/jobs"
	"github.com/serroba/dynamic-links/internal/messaging"
	"github.com/serroba/dynamic-links/internal/shortener"
	"go.uber.org/zap"
)

// StrategyPackage provides the strategy factory and the configured strategy.
func StrategyPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.StrategyFactory, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewStrategyFactory(shortener.StrategyConfig{
			Name:      shortener.StrategyName(opts.Strategy),
			MinLength: opts.MinLength,
			MaxLength: opts.MaxLength,
		}), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Strategy, error) {
		return do.MustInvoke[*shortener.StrategyFactory](i).Configured()
	})
}

// ShortenerPackage provides the shortening service, publishing async jobs to the bus.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		strategy, err := do.Invoke[shortener.Strategy](i)
		if err != nil {
			return nil, err
		}

		publishers := do.MustInvoke[*messaging.PublisherGroup](i)
		enqueuer := jobs.NewEnqueuer(
			messaging.NewPublishFunc[jobs.ShortenURLMessage](publishers.Publisher(), jobs.TopicShortenURLRequested),
		)

		return shortener.NewService(
			strategy,
			do.MustInvoke[shortener.Storage](i),
			enqueuer,
			do.MustInvoke[shortener.Locker](i),
			do.MustInvoke[*zap.Logger](i),
			shortener.WithCodeLength(opts.CodeLength),
		), nil
	})
}
