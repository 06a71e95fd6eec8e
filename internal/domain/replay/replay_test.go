package replay_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/netrisk/internal/domain/replay"
	"github.com/okian/netrisk/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryGuard(t *testing.T) {
	Convey("Given an in-memory guard with a one minute TTL", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		g := replay.NewInMemoryGuard(replay.WithTTL(time.Minute), replay.WithClock(clock.Now))

		Convey("When a request id is seen for the first time", func() {
			seen := g.SeenAndRecord(ctx, "req-1")

			Convey("Then it is recorded, not a replay", func() {
				So(seen, ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And the same id arrives again within the TTL", func() {
				clock.Advance(30 * time.Second)
				So(g.SeenAndRecord(ctx, "req-1"), ShouldBeTrue)
			})

			Convey("And the same id arrives after the TTL", func() {
				clock.Advance(61 * time.Second)
				So(g.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And the id is forgotten", func() {
				g.Forget(ctx, "req-1")
				So(g.Size(), ShouldEqual, 0)
				So(g.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
			})
		})

		Convey("When a forgotten id is recorded again", func() {
			g.SeenAndRecord(ctx, "req-1")
			g.Forget(ctx, "req-1")
			clock.Advance(40 * time.Second)
			g.SeenAndRecord(ctx, "req-1")
			clock.Advance(30 * time.Second)

			Convey("Then the stale entry does not expire the new one", func() {
				So(g.SeenAndRecord(ctx, "req-1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a bounded guard", t, func() {
		ctx := context.Background()
		g := replay.NewInMemoryGuard(replay.WithMaxSize(3))

		Convey("When more ids than the bound are recorded", func() {
			for i := 0; i < 4; i++ {
				g.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i))
			}

			Convey("Then the oldest id is evicted", func() {
				So(g.Size(), ShouldEqual, 3)
				So(g.SeenAndRecord(ctx, "req-3"), ShouldBeTrue)
				So(g.SeenAndRecord(ctx, "req-0"), ShouldBeFalse)
			})
		})
	})

	Convey("Given concurrent callers with the same id", t, func() {
		ctx := context.Background()
		g := replay.NewInMemoryGuard()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !g.SeenAndRecord(ctx, "req-shared") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one of them is accepted", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}

func TestRedisGuardFailsOpen(t *testing.T) {
	Convey("Given a Redis guard pointing at an unreachable server", t, func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()
		g := replay.NewRedisGuard(client, time.Minute)

		Convey("Then requests are let through", func() {
			So(g.SeenAndRecord(context.Background(), "req-1"), ShouldBeFalse)
			So(func() { g.Forget(context.Background(), "req-1") }, ShouldNotPanic)
			So(g.Size(), ShouldEqual, -1)
		})
	})
}
