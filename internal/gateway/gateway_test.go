package gateway_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/internal/gateway"
	"github.com/okian/netrisk/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fetchFunc[T any] func(ctx context.Context, req provider.Request) T

func (f fetchFunc[T]) Fetch(ctx context.Context, req provider.Request) T { return f(ctx, req) }

type recorder struct {
	mu   sync.Mutex
	reqs []provider.Request
}

func (r *recorder) add(req provider.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func TestCollect(t *testing.T) {
	Convey("Given four fetchers that each take 100ms", t, func() {
		rec := &recorder{}
		delay := 100 * time.Millisecond
		g := gateway.New(
			fetchFunc[model.SimSwapSignal](func(_ context.Context, req provider.Request) model.SimSwapSignal {
				rec.add(req)
				time.Sleep(delay)
				return model.SimSwapSignal{Swapped: true, Provenance: model.ProvenanceLive}
			}),
			fetchFunc[model.LocationSignal](func(_ context.Context, req provider.Request) model.LocationSignal {
				rec.add(req)
				time.Sleep(delay)
				return model.LocationSignal{Verified: true, Provenance: model.ProvenanceSimulated}
			}),
			fetchFunc[model.RoamingSignal](func(_ context.Context, req provider.Request) model.RoamingSignal {
				rec.add(req)
				time.Sleep(delay)
				return model.RoamingSignal{Provenance: model.ProvenanceLive}
			}),
			fetchFunc[model.ConnectivitySignal](func(_ context.Context, req provider.Request) model.ConnectivitySignal {
				rec.add(req)
				time.Sleep(delay)
				return model.ConnectivitySignal{Status: model.ConnectivityData, Provenance: model.ProvenanceLive}
			}),
			gateway.WithExpectedLocation(geo.Point{Lat: 1, Lon: 2}, 1000),
			gateway.WithMaxSwapAge(72),
		)

		Convey("When collecting for a transaction", func() {
			start := time.Now()
			bundle := g.Collect(context.Background(), model.Transaction{ID: "t1", Identifier: "+61400500800"})
			elapsed := time.Since(start)

			Convey("Then the fetchers ran concurrently", func() {
				So(elapsed, ShouldBeLessThan, 350*time.Millisecond)
			})

			Convey("Then the bundle carries every kind with its provenance", func() {
				So(bundle.SimSwap.Swapped, ShouldBeTrue)
				So(bundle.Location.Verified, ShouldBeTrue)
				So(bundle.Connectivity.Status, ShouldEqual, model.ConnectivityData)
				So(bundle.Simulated(), ShouldResemble, []model.SignalKind{model.KindLocation})
			})

			Convey("Then every fetcher got the same request", func() {
				So(rec.reqs, ShouldHaveLength, 4)
				for _, r := range rec.reqs {
					So(r.Identifier, ShouldEqual, "+61400500800")
					So(r.Expected, ShouldResemble, geo.Point{Lat: 1, Lon: 2})
					So(r.RadiusMeters, ShouldEqual, 1000)
					So(r.MaxSwapAgeHours, ShouldEqual, 72)
				}
			})
		})
	})
}

func TestCollectUnderOutage(t *testing.T) {
	Convey("Given providers that are all unreachable", t, func() {
		client := camara.NewClient(camara.WithBaseURL("http://127.0.0.1:1"), camara.WithAPIKey("k"))
		set := provider.NewSet(client, provider.SetConfig{Options: []provider.Option{provider.WithTimeout(200 * time.Millisecond)}})
		g := gateway.FromSet(set)

		Convey("When collecting", func() {
			bundle := g.Collect(context.Background(), model.Transaction{ID: "t2", Identifier: "+919876543210"})

			Convey("Then a complete, fully simulated bundle is returned", func() {
				So(bundle.Simulated(), ShouldResemble, model.Kinds())
				So(bundle.Location.City, ShouldNotBeEmpty)
				So(bundle.Roaming.HomeNetwork, ShouldEqual, provider.DefaultHomeNetwork)
				So(bundle.Connectivity.Status, ShouldNotBeEmpty)
			})
		})
	})
}
