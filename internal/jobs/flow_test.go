package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/dynamic-links/internal/jobs"
	"github.com/serroba/dynamic-links/internal/messaging"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/serroba/dynamic-links/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShortenAsyncThroughBus(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, messaging.NewZapLoggerAdapter(logger))

	factory := shortener.NewStrategyFactory(shortener.StrategyConfig{Name: shortener.StrategySHA256})
	strategy, err := factory.Configured()
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	locker := store.NewMemoryLocker(time.Minute)
	processor := jobs.NewProcessor(factory, mem, locker, logger)

	consumer := messaging.NewConsumer(pubSub, jobs.TopicShortenURLRequested, processor.Handle, logger)
	require.NoError(t, consumer.Start(ctx))

	t.Cleanup(func() {
		_ = consumer.Shutdown()
		_ = pubSub.Close()
	})

	enqueuer := jobs.NewEnqueuer(messaging.NewPublishFunc[jobs.ShortenURLMessage](pubSub, jobs.TopicShortenURLRequested))
	svc := shortener.NewService(strategy, mem, enqueuer, locker, logger, shortener.WithCodeLength(8))
	client := shortener.Client{ID: 3, Name: "acme", Scheme: "https", Hostname: "dl.example"}

	enqueued, err := svc.ShortenAsync(ctx, client, "https://example.com/page")

	require.NoError(t, err)
	assert.True(t, enqueued)

	lockKey := shortener.GenerateLockKey(client, "https://example.com/page")

	assert.Eventually(t, func() bool {
		return mem.Len() == 1 && !locker.Locked(lockKey)
	}, 2*time.Second, 10*time.Millisecond)

	code, err := strategy.Shorten("https://example.com/page", 8)
	require.NoError(t, err)

	got, err := mem.GetByCode(ctx, client.ID, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", got.URL)
}
