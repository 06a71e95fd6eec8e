package camara

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClientCalls(t *testing.T) {
	Convey("Given a gateway stub", t, func() {
		var gotPath, gotKey, gotHost, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-rapidapi-key")
			gotHost = r.Header.Get("x-rapidapi-host")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			switch r.URL.Path {
			case PathSimSwap:
				_, _ = w.Write([]byte(`{"swapped":true}`))
			case PathLocation:
				_, _ = w.Write([]byte(`{"latitude":26.45,"longitude":80.33,"accuracy":120}`))
			case PathRoaming:
				_, _ = w.Write([]byte(`{"roaming":true,"countryCode":262,"countryName":["Germany"]}`))
			case PathConnectivity:
				_, _ = w.Write([]byte(`{"connectivityStatus":"CONNECTED_SMS","lastStatusTime":"2024-05-01T10:00:00Z"}`))
			}
		}))
		defer srv.Close()

		c := NewClient(WithBaseURL(srv.URL+"/"), WithAPIKey(" secret "), WithAPIHost("host.test"))
		ctx := context.Background()

		Convey("When checking a SIM swap", func() {
			out, err := c.CheckSimSwap(ctx, "+61400500800", 240)
			So(err, ShouldBeNil)
			So(*out.Swapped, ShouldBeTrue)
			So(gotPath, ShouldEqual, PathSimSwap)
			So(gotKey, ShouldEqual, "secret")
			So(gotHost, ShouldEqual, "host.test")
			So(gotBody, ShouldEqual, `{"phoneNumber":"+61400500800","maxAge":240}`)
		})

		Convey("When retrieving a location", func() {
			out, err := c.RetrieveLocation(ctx, "+61400500800", 60)
			So(err, ShouldBeNil)
			So(*out.Latitude, ShouldEqual, 26.45)
			So(out.Accuracy, ShouldEqual, 120)
			So(gotBody, ShouldEqual, `{"device":{"phoneNumber":"+61400500800"},"maxAge":60}`)
		})

		Convey("When fetching roaming and connectivity", func() {
			r, err := c.Roaming(ctx, "+61400500800")
			So(err, ShouldBeNil)
			So(*r.Roaming, ShouldBeTrue)
			So(r.CountryName, ShouldResemble, []string{"Germany"})
			So(gotBody, ShouldEqual, `{"device":{"phoneNumber":"+61400500800"}}`)

			s, err := c.Connectivity(ctx, "+61400500800")
			So(err, ShouldBeNil)
			So(s.ConnectivityStatus, ShouldEqual, "CONNECTED_SMS")
		})
	})
}

func TestClientFailures(t *testing.T) {
	Convey("Given failure modes", t, func() {
		ctx := context.Background()

		Convey("When no API key is configured", func() {
			called := false
			srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
			defer srv.Close()
			_, err := NewClient(WithBaseURL(srv.URL)).CheckSimSwap(ctx, "+61400500800", 240)
			So(errors.Is(err, ErrMissingCredentials), ShouldBeTrue)
			So(called, ShouldBeFalse)
		})

		Convey("When the gateway returns 401", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"bad key"}`))
			}))
			defer srv.Close()
			_, err := NewClient(WithBaseURL(srv.URL), WithAPIKey("k")).Roaming(ctx, "+61400500800")
			So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
			var se *StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the reply is not JSON", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			}))
			defer srv.Close()
			_, err := NewClient(WithBaseURL(srv.URL), WithAPIKey("k")).Connectivity(ctx, "+61400500800")
			So(errors.Is(err, ErrMalformedReply), ShouldBeTrue)
		})

		Convey("When the reply lacks required fields", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"accuracy":10}`))
			}))
			defer srv.Close()
			_, err := NewClient(WithBaseURL(srv.URL), WithAPIKey("k")).RetrieveLocation(ctx, "+61400500800", 60)
			So(errors.Is(err, ErrMalformedReply), ShouldBeTrue)
		})

		Convey("When the deadline passes before the reply", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer srv.Close()
			tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err := NewClient(WithBaseURL(srv.URL), WithAPIKey("k")).CheckSimSwap(tctx, "+61400500800", 240)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("When the gateway is unreachable", func() {
			_, err := NewClient(WithBaseURL("http://127.0.0.1:1"), WithAPIKey("k")).CheckSimSwap(ctx, "+61400500800", 240)
			So(errors.Is(err, ErrTransport), ShouldBeTrue)
		})
	})
}
