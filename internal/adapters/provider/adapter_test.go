package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
)

func init() {
	_ = logger.Init()
}

var kanpur = geo.Point{Lat: 26.4499, Lon: 80.3319}

func request(id string) provider.Request {
	return provider.Request{Identifier: id, Expected: kanpur, RadiusMeters: 50000, MaxSwapAgeHours: 240}
}

type stub struct {
	hits  atomic.Int64
	delay time.Duration
	code  int
	body  map[string]string
}

func (s *stub) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-r.Context().Done():
				return
			}
		}
		if s.code != 0 {
			w.WriteHeader(s.code)
			return
		}
		_, _ = w.Write([]byte(s.body[r.URL.Path]))
	}))
}

func liveBodies() map[string]string {
	return map[string]string{
		camara.PathSimSwap:      `{"swapped":true}`,
		camara.PathLocation:     `{"latitude":26.46,"longitude":80.34,"accuracy":50}`,
		camara.PathRoaming:      `{"roaming":true,"countryName":["Germany"]}`,
		camara.PathConnectivity: `{"connectivityStatus":"NOT_CONNECTED","lastStatusTime":"2024-05-01T10:00:00Z"}`,
	}
}

func TestAdapterLive(t *testing.T) {
	Convey("Given a healthy provider", t, func() {
		s := &stub{body: liveBodies()}
		srv := s.server()
		defer srv.Close()
		set := provider.NewSet(camara.NewClient(camara.WithBaseURL(srv.URL), camara.WithAPIKey("k")), provider.SetConfig{})
		ctx := context.Background()

		Convey("When each adapter fetches", func() {
			sim := set.SimSwap.Fetch(ctx, request("+61400500800"))
			loc := set.Location.Fetch(ctx, request("+61400500800"))
			roam := set.Roaming.Fetch(ctx, request("+61400500800"))
			conn := set.Connectivity.Fetch(ctx, request("+61400500800"))

			Convey("Then every signal is live and parsed", func() {
				So(sim.Provenance, ShouldEqual, model.ProvenanceLive)
				So(sim.Swapped, ShouldBeTrue)

				So(loc.Provenance, ShouldEqual, model.ProvenanceLive)
				So(loc.Verified, ShouldBeTrue)
				So(loc.City, ShouldEqual, "Kanpur")
				So(loc.DistanceMeters, ShouldBeLessThan, 5000)

				So(roam.Provenance, ShouldEqual, model.ProvenanceLive)
				So(roam.Roaming, ShouldBeTrue)
				So(roam.Country, ShouldEqual, "Germany")
				So(roam.HomeNetwork, ShouldEqual, provider.DefaultHomeNetwork)

				So(conn.Provenance, ShouldEqual, model.ProvenanceLive)
				So(conn.Status, ShouldEqual, model.ConnectivityNotConnected)
				So(conn.LastSeen, ShouldEqual, "2024-05-01T10:00:00Z")
				So(s.hits.Load(), ShouldEqual, 4)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			sig := set.SimSwap.Fetch(cctx, request("+61400500800"))

			Convey("Then the live call still runs under the adapter's own timeout", func() {
				So(sig.Provenance, ShouldEqual, model.ProvenanceLive)
			})
		})
	})
}

func TestAdapterFallback(t *testing.T) {
	Convey("Given failing providers", t, func() {
		ctx := context.Background()

		Convey("When the provider returns 500", func() {
			s := &stub{code: http.StatusInternalServerError}
			srv := s.server()
			defer srv.Close()
			a := provider.New[model.RoamingSignal](
				provider.NewLiveRoaming(camara.NewClient(camara.WithBaseURL(srv.URL), camara.WithAPIKey("k")), ""),
				provider.NewSimulatedRoaming(""))
			sig := a.Fetch(ctx, request("+61400500800"))
			So(sig.Provenance, ShouldEqual, model.ProvenanceSimulated)
			So(sig.HomeNetwork, ShouldEqual, provider.DefaultHomeNetwork)
			So(s.hits.Load(), ShouldEqual, 1)
		})

		Convey("When the provider is slower than the timeout", func() {
			s := &stub{delay: 2 * time.Second, body: liveBodies()}
			srv := s.server()
			defer srv.Close()
			a := provider.New[model.SimSwapSignal](
				provider.NewLiveSimSwap(camara.NewClient(camara.WithBaseURL(srv.URL), camara.WithAPIKey("k"))),
				provider.SimulatedSimSwap{},
				provider.WithTimeout(50*time.Millisecond))
			start := time.Now()
			sig := a.Fetch(ctx, request("+61400500800"))
			So(sig.Provenance, ShouldEqual, model.ProvenanceSimulated)
			So(time.Since(start), ShouldBeLessThan, time.Second)
		})

		Convey("When no API key is configured", func() {
			s := &stub{body: liveBodies()}
			srv := s.server()
			defer srv.Close()
			set := provider.NewSet(camara.NewClient(camara.WithBaseURL(srv.URL)), provider.SetConfig{})
			sig := set.Location.Fetch(ctx, request("+61400500800"))
			So(sig.Provenance, ShouldEqual, model.ProvenanceSimulated)
			So(s.hits.Load(), ShouldEqual, 0)
		})

		Convey("When the adapter is in simulated mode", func() {
			s := &stub{body: liveBodies()}
			srv := s.server()
			defer srv.Close()
			set := provider.NewSet(camara.NewClient(camara.WithBaseURL(srv.URL), camara.WithAPIKey("k")), provider.SetConfig{
				Modes: map[model.SignalKind]provider.Mode{model.KindConnectivity: provider.ModeSimulated},
			})
			sig := set.Connectivity.Fetch(ctx, request("+61400500800"))
			So(sig.Provenance, ShouldEqual, model.ProvenanceSimulated)
			So(set.Connectivity.Mode(), ShouldEqual, provider.ModeSimulated)
			So(s.hits.Load(), ShouldEqual, 0)
		})

		Convey("When failures reach the breaker threshold", func() {
			s := &stub{code: http.StatusBadGateway}
			srv := s.server()
			defer srv.Close()
			a := provider.New[model.SimSwapSignal](
				provider.NewLiveSimSwap(camara.NewClient(camara.WithBaseURL(srv.URL), camara.WithAPIKey("k"))),
				provider.SimulatedSimSwap{},
				provider.WithBreaker(2, time.Minute))
			for i := 0; i < 5; i++ {
				So(a.Fetch(ctx, request("+61400500800")).Provenance, ShouldEqual, model.ProvenanceSimulated)
			}

			Convey("Then the breaker opens and stops calling the provider", func() {
				So(s.hits.Load(), ShouldEqual, 2)
				So(a.BreakerState(), ShouldEqual, "open")
			})
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		m, err := provider.ParseMode("REAL")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, provider.ModeLive)
		m, err = provider.ParseMode("mock")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, provider.ModeSimulated)
		_, err = provider.ParseMode("sometimes")
		So(err, ShouldWrap, provider.ErrUnknownMode)
	})
}

func TestStatuses(t *testing.T) {
	Convey("Given a provider set", t, func() {
		set := provider.NewSet(camara.NewClient(), provider.SetConfig{})
		st := set.Statuses()
		So(st, ShouldHaveLength, 4)
		So(st[0].Kind, ShouldEqual, model.KindSimSwap)
		So(st[3].Breaker, ShouldEqual, "closed")
	})
}
