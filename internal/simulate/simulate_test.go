package simulate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/netrisk/internal/adapters/http/api"
	service "github.com/okian/netrisk/internal/app"
	"github.com/okian/netrisk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerate(t *testing.T) {
	convey.Convey("Given a seeded configuration", t, func() {
		cfg := Config{Count: 300, Identifiers: 20, Seed: 42}

		convey.Convey("When transactions are generated", func() {
			txs := Generate(cfg)

			convey.Convey("Then they stay inside the test range and input bounds", func() {
				convey.So(txs, convey.ShouldHaveLength, 300)
				ids := map[string]bool{}
				for _, tx := range txs {
					ids[tx.Identifier] = true
					convey.So(strings.HasPrefix(tx.Identifier, NumberPrefix), convey.ShouldBeTrue)
					convey.So(tx.ModelProbability, convey.ShouldBeBetweenOrEqual, 0.0, 1.0)
					convey.So(tx.Amount, convey.ShouldBeGreaterThan, 0)
					convey.So(tx.RequestID, convey.ShouldNotBeEmpty)
				}
				convey.So(ids, convey.ShouldHaveLength, 20)
				convey.So(ids[Identifier(0)], convey.ShouldBeTrue)
				convey.So(Identifier(199), convey.ShouldEqual, "+61400500999")
			})

			convey.Convey("Then the same seed gives the same amounts and probabilities", func() {
				again := Generate(cfg)
				for i := range txs {
					convey.So(again[i].Amount, convey.ShouldEqual, txs[i].Amount)
					convey.So(again[i].ModelProbability, convey.ShouldEqual, txs[i].ModelProbability)
				}
			})
		})

		convey.Convey("When the identifier count exceeds the range", func() {
			txs := Generate(Config{Count: 400, Identifiers: 5000, Seed: 1})
			convey.So(txs[399].Identifier, convey.ShouldEqual, Identifier(199))
		})
	})
}

func TestCheckResult(t *testing.T) {
	convey.Convey("Given results checked against 35/70", t, func() {
		ok := Result{TransactionID: "t1", Decision: "STEP_UP", FinalScore: 40, WeightedScore: 28, ConditionScore: 40}
		convey.So(checkResult(ok, 35, 70), convey.ShouldBeEmpty)

		badMax := ok
		badMax.FinalScore = 28
		badMax.Decision = "ACCEPT"
		convey.So(checkResult(badMax, 35, 70), convey.ShouldHaveLength, 1)

		badDecision := ok
		badDecision.Decision = "REJECT"
		convey.So(checkResult(badDecision, 35, 70), convey.ShouldHaveLength, 1)

		convey.So(expectedDecision(34.99, 35, 70), convey.ShouldEqual, "ACCEPT")
		convey.So(expectedDecision(35, 35, 70), convey.ShouldEqual, "STEP_UP")
		convey.So(expectedDecision(70, 35, 70), convey.ShouldEqual, "STEP_UP")
		convey.So(expectedDecision(70.01, 35, 70), convey.ShouldEqual, "REJECT")
	})
}

func TestCheckHistory(t *testing.T) {
	convey.Convey("Given an identifier with one earlier record", t, func() {
		res := Result{TransactionID: "t2", RecordID: "r2", Decision: "ACCEPT", FinalScore: 4}
		rec := AuditEntry{ID: "r2", Sequence: 2}
		rec.Transaction.ID = "t2"
		rec.Breakdown.Decision = "ACCEPT"
		rec.Breakdown.FinalScore = 4
		old := AuditEntry{ID: "r1", Sequence: 1}

		convey.Convey("Then a matching log passes", func() {
			v := checkHistory("+61400500800", []AuditEntry{rec, old}, 1, map[string]Result{"t2": res})
			convey.So(v, convey.ShouldBeEmpty)
		})

		convey.Convey("Then a missing record is reported", func() {
			v := checkHistory("+61400500800", []AuditEntry{old}, 1, map[string]Result{"t2": res})
			convey.So(v, convey.ShouldHaveLength, 2)
		})

		convey.Convey("Then a disagreeing decision is reported", func() {
			rec.Breakdown.Decision = "REJECT"
			v := checkHistory("+61400500800", []AuditEntry{rec, old}, 1, map[string]Result{"t2": res})
			convey.So(v, convey.ShouldHaveLength, 1)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithSummarySchedule(""))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, nil).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("When 50 distinct numbers are evaluated concurrently", func() {
			rep, err := Run(ctx, Config{BaseURL: srv.URL, Count: 50, Identifiers: 50, Workers: 8, Timeout: 5 * time.Second})

			convey.Convey("Then every evaluation is audited exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rep.Submitted, convey.ShouldEqual, 50)
				convey.So(rep.Audited, convey.ShouldEqual, 50)
				convey.So(rep.Failed, convey.ShouldEqual, 0)
				convey.So(rep.Violations, convey.ShouldBeEmpty)

				stats, err := svc.AuditStats(ctx, time.Time{})
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Total, convey.ShouldEqual, 50)
			})

			convey.Convey("Then a second run accounts for the earlier records", func() {
				convey.So(err, convey.ShouldBeNil)
				rep, err := Run(ctx, Config{BaseURL: srv.URL, Count: 100, Identifiers: 50, Workers: 8, Timeout: 5 * time.Second})
				convey.So(err, convey.ShouldBeNil)
				convey.So(rep.Audited, convey.ShouldEqual, 100)
			})
		})
	})

	convey.Convey("Given a service that breaks the score contract", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("POST /v1/evaluate", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"transaction_id":"x","identifier":"+61400500800","record_id":"r",` +
				`"decision":"REJECT","final_score":10,"weighted_score":10,"condition_score":0,"audited":true}`))
		})
		mux.HandleFunc("GET /v1/audit/{identifier}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"records":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		rep, err := Run(context.Background(), Config{BaseURL: srv.URL, Count: 3, Identifiers: 1, Workers: 2})
		convey.So(errors.Is(err, ErrVerification), convey.ShouldBeTrue)
		convey.So(rep, convey.ShouldNotBeNil)
		convey.So(rep.Violations, convey.ShouldNotBeEmpty)
	})

	convey.Convey("Given nothing listening", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := Run(ctx, Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
		convey.So(err, convey.ShouldNotBeNil)
	})
}
