package phone

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given raw identifiers", t, func() {
		Convey("When the number carries a country code", func() {
			out, err := Normalize(" +61 400-500-800 ", "")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "+61400500800")
		})

		Convey("When the number has no leading plus", func() {
			out, err := Normalize("(98765) 43210", "")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "+919876543210")
		})

		Convey("When a custom country code is given without a plus", func() {
			out, err := Normalize("400500800", "61")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "+61400500800")
		})

		Convey("When the input is empty or too short", func() {
			_, err := Normalize("   ", "")
			So(errors.Is(err, ErrInvalidNumber), ShouldBeTrue)
			_, err = Normalize("+12", "")
			So(errors.Is(err, ErrInvalidNumber), ShouldBeTrue)
		})

		Convey("When the input has no digits", func() {
			_, err := Normalize("call me", "")
			So(errors.Is(err, ErrInvalidNumber), ShouldBeTrue)
		})
	})
}
