package model_test

import (
	"testing"

	model "github.com/okian/netrisk/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNetworkSignals(t *testing.T) {
	convey.Convey("Given a bundle with mixed provenance", t, func() {
		bundle := model.NetworkSignals{
			SimSwap:      model.SimSwapSignal{Provenance: model.ProvenanceLive},
			Location:     model.LocationSignal{Provenance: model.ProvenanceSimulated},
			Roaming:      model.RoamingSignal{Provenance: model.ProvenanceLive},
			Connectivity: model.ConnectivitySignal{Provenance: model.ProvenanceSimulated},
		}

		convey.Convey("Then simulated kinds are listed in collection order", func() {
			convey.So(bundle.Simulated(), convey.ShouldResemble, []model.SignalKind{model.KindLocation, model.KindConnectivity})
			convey.So(bundle.AllLive(), convey.ShouldBeFalse)
			convey.So(bundle.APIMode(), convey.ShouldEqual, "MIXED")
			convey.So(bundle.Provenances(), convey.ShouldHaveLength, 4)
		})

		convey.Convey("When every signal is live", func() {
			bundle.Location = bundle.Location.WithProvenance(model.ProvenanceLive)
			bundle.Connectivity = bundle.Connectivity.WithProvenance(model.ProvenanceLive)
			convey.So(bundle.AllLive(), convey.ShouldBeTrue)
			convey.So(bundle.APIMode(), convey.ShouldEqual, "REAL")
		})
	})
}

func TestSignalHelpers(t *testing.T) {
	convey.Convey("Given SIM swap recency values", t, func() {
		convey.So(model.SimSwapSignal{}.LastSwap(), convey.ShouldEqual, "none")
		convey.So(model.SimSwapSignal{Swapped: true}.LastSwap(), convey.ShouldEqual, "recently")
		convey.So(model.SimSwapSignal{Swapped: true, SwapAgeHours: 1}.LastSwap(), convey.ShouldEqual, "1 hour ago")
		convey.So(model.SimSwapSignal{Swapped: true, SwapAgeHours: 72}.LastSwap(), convey.ShouldEqual, "3 days ago")
	})

	convey.Convey("Given a location signal", t, func() {
		convey.So(model.LocationSignal{DistanceMeters: 1500}.DistanceKm(), convey.ShouldEqual, 1.5)
	})

	convey.Convey("Given connectivity statuses", t, func() {
		convey.So(model.ConnectivitySignal{Status: model.ConnectivityNotConnected}.Offline(), convey.ShouldBeTrue)
		convey.So(model.ConnectivitySignal{Status: model.ConnectivitySMS}.Offline(), convey.ShouldBeFalse)
	})
}

func TestDecisionLabels(t *testing.T) {
	convey.Convey("Given each decision", t, func() {
		convey.So(model.DecisionAccept.RiskLevel(), convey.ShouldEqual, "Low Risk")
		convey.So(model.DecisionStepUp.RiskLevel(), convey.ShouldEqual, "Medium Risk")
		convey.So(model.DecisionReject.RiskLevel(), convey.ShouldEqual, "High Risk")
		convey.So(model.DecisionReject.Recommendation(), convey.ShouldContainSubstring, "Manual review")
	})

	convey.Convey("Given a breakdown with triggered rules", t, func() {
		b := model.ScoringBreakdown{TriggeredRules: []model.TriggeredRule{{ID: "SIM_SWAP_DETECTED", Points: 40}}}
		convey.So(b.Fired("SIM_SWAP_DETECTED"), convey.ShouldBeTrue)
		convey.So(b.Fired("DEVICE_OFFLINE"), convey.ShouldBeFalse)
	})
}
