package cache_test

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/cache"
	"github.com/asthma-connect/clinic/config"
	"github.com/asthma-connect/clinic/test"
)

type record struct {
	HN     string  `json:"hn"`
	Height float64 `json:"height"`
}

func randomRecord() record {
	return record{
		HN:     test.Faker.Numerify("#######"),
		Height: test.Faker.Float64(1, 100, 200),
	}
}

func behavesLikeACache(newCache func() cache.Cache) {
	var c cache.Cache
	var ctx context.Context

	BeforeEach(func() {
		c = newCache()
		ctx = context.Background()
	})

	It("misses unknown keys", func() {
		var result record
		found, err := c.Get(ctx, "missing", &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("returns stored values", func() {
		stored := randomRecord()
		Expect(c.Set(ctx, cache.Key("patients", stored.HN), stored)).To(Succeed())

		var result record
		found, err := c.Get(ctx, cache.Key("patients", stored.HN), &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(result).To(Equal(stored))
	})

	It("returns a copy that is isolated from later changes of the stored value", func() {
		stored := []record{randomRecord()}
		Expect(c.Set(ctx, "list", stored)).To(Succeed())
		stored[0].Height = 0

		var result []record
		found, err := c.Get(ctx, "list", &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(result[0].Height).ToNot(BeZero())
	})

	It("forgets everything when purged", func() {
		Expect(c.Set(ctx, "a", randomRecord())).To(Succeed())
		Expect(c.Set(ctx, "b", randomRecord())).To(Succeed())
		Expect(c.Purge(ctx)).To(Succeed())

		var result record
		found, err := c.Get(ctx, "a", &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())
		found, err = c.Get(ctx, "b", &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	Describe("Fetch", func() {
		It("loads once and serves subsequent reads from the cache", func() {
			loads := 0
			load := func() (record, error) {
				loads++
				return record{HN: "0000001", Height: 150}, nil
			}

			first, err := cache.Fetch(ctx, c, "fetch", load)
			Expect(err).ToNot(HaveOccurred())
			second, err := cache.Fetch(ctx, c, "fetch", load)
			Expect(err).ToNot(HaveOccurred())

			Expect(first).To(Equal(second))
			Expect(loads).To(Equal(1))
		})

		It("does not cache load failures", func() {
			_, err := cache.Fetch(ctx, c, "failing", func() (record, error) {
				return record{}, errors.New("boom")
			})
			Expect(err).To(MatchError("boom"))

			var result record
			found, err := c.Get(ctx, "failing", &result)
			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})
}

var _ = Describe("Cache", func() {
	Describe("LRU", func() {
		behavesLikeACache(func() cache.Cache {
			c, err := cache.NewLRU(16, time.Minute)
			Expect(err).ToNot(HaveOccurred())
			return c
		})

		It("expires entries after the ttl", func() {
			c, err := cache.NewLRU(16, 20*time.Millisecond)
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Set(context.Background(), "key", randomRecord())).To(Succeed())

			Eventually(func() bool {
				var result record
				found, _ := c.Get(context.Background(), "key", &result)
				return found
			}).WithTimeout(time.Second).WithPolling(5 * time.Millisecond).Should(BeFalse())
		})

		It("evicts the least recently used entries beyond its size", func() {
			c, err := cache.NewLRU(2, time.Minute)
			Expect(err).ToNot(HaveOccurred())
			ctx := context.Background()
			Expect(c.Set(ctx, "a", randomRecord())).To(Succeed())
			Expect(c.Set(ctx, "b", randomRecord())).To(Succeed())
			Expect(c.Set(ctx, "c", randomRecord())).To(Succeed())
			Expect(c.Len()).To(Equal(2))

			var result record
			found, err := c.Get(ctx, "a", &result)
			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("Redis", func() {
		var server *miniredis.Miniredis
		var client *redis.Client

		BeforeEach(func() {
			var err error
			server, err = miniredis.Run()
			Expect(err).ToNot(HaveOccurred())
			client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		})

		AfterEach(func() {
			Expect(client.Close()).To(Succeed())
			server.Close()
		})

		behavesLikeACache(func() cache.Cache {
			return cache.NewRedis(client, cache.KeyPrefix, time.Minute)
		})

		It("stores entries under the prefix with the configured ttl", func() {
			c := cache.NewRedis(client, cache.KeyPrefix, time.Minute)
			Expect(c.Set(context.Background(), "key", randomRecord())).To(Succeed())

			Expect(server.Exists(cache.KeyPrefix + "key")).To(BeTrue())
			Expect(server.TTL(cache.KeyPrefix + "key")).To(Equal(time.Minute))

			server.FastForward(2 * time.Minute)
			var result record
			found, err := c.Get(context.Background(), "key", &result)
			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("leaves keys outside the prefix alone when purging", func() {
			Expect(server.Set("unrelated", "value")).To(Succeed())
			c := cache.NewRedis(client, cache.KeyPrefix, time.Minute)
			for i := 0; i < 250; i++ {
				Expect(c.Set(context.Background(), cache.Key("visits", i), randomRecord())).To(Succeed())
			}

			Expect(c.Purge(context.Background())).To(Succeed())
			Expect(server.Keys()).To(ConsistOf("unrelated"))
		})
	})

	Describe("New", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.New()
			cfg.CacheSize = 16
			cfg.CacheTTL = time.Minute
		})

		It("uses the in-memory cache without a redis address", func() {
			lifecycle := fxtest.NewLifecycle(GinkgoT())
			c, err := cache.New(cfg, lifecycle, zap.NewNop().Sugar())
			Expect(err).ToNot(HaveOccurred())
			Expect(c).To(BeAssignableToTypeOf(&cache.LRU{}))
			lifecycle.RequireStart().RequireStop()
		})

		It("connects to redis on start when an address is configured", func() {
			server := miniredis.RunT(GinkgoT())
			cfg.RedisAddress = server.Addr()

			lifecycle := fxtest.NewLifecycle(GinkgoT())
			c, err := cache.New(cfg, lifecycle, zap.NewNop().Sugar())
			Expect(err).ToNot(HaveOccurred())
			Expect(c).To(BeAssignableToTypeOf(&cache.Redis{}))

			lifecycle.RequireStart()
			Expect(c.Set(context.Background(), "key", randomRecord())).To(Succeed())
			Expect(server.Exists(cache.KeyPrefix + "key")).To(BeTrue())
			lifecycle.RequireStop()
		})

		It("fails to start when redis is unreachable", func() {
			server := miniredis.RunT(GinkgoT())
			cfg.RedisAddress = server.Addr()
			server.Close()

			lifecycle := fxtest.NewLifecycle(GinkgoT())
			_, err := cache.New(cfg, lifecycle, zap.NewNop().Sugar())
			Expect(err).ToNot(HaveOccurred())
			Expect(lifecycle.Start(context.Background())).To(HaveOccurred())
		})
	})
})
