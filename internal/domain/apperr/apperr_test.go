package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/udrf/internal/domain/apperr"
	. "github.com/smartystreets/goconvey/convey"
)

func TestError(t *testing.T) {
	Convey("Given a kinded error", t, func() {
		err := apperr.NewKind("review.lock", apperr.ErrAlreadyLocked, "review is already locked")

		Convey("Then it matches its kind", func() {
			So(errors.Is(err, apperr.ErrAlreadyLocked), ShouldBeTrue)
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeFalse)
			So(apperr.IsAlreadyLocked(err), ShouldBeTrue)
			So(apperr.KindOf(err), ShouldEqual, apperr.ErrAlreadyLocked)
		})

		Convey("Then the message is human readable", func() {
			So(err.Error(), ShouldEqual, "review.lock: review is already locked")
			So(apperr.Message(err), ShouldEqual, "review is already locked")
		})

		Convey("When it is wrapped by another operation", func() {
			wrapped := apperr.Wrap("api.lock", err)

			Convey("Then kind and message survive", func() {
				So(apperr.KindOf(wrapped), ShouldEqual, apperr.ErrAlreadyLocked)
				So(apperr.Message(wrapped), ShouldEqual, "review is already locked")
				So(wrapped.Error(), ShouldEqual, "api.lock: review.lock: review is already locked")
			})
		})

		Convey("When it is wrapped with fmt", func() {
			wrapped := fmt.Errorf("outer: %w", err)
			So(apperr.IsAlreadyLocked(wrapped), ShouldBeTrue)
		})
	})

	Convey("Given a foreign cause", t, func() {
		cause := errors.New("connection refused")
		err := apperr.WrapKind("provider.load", apperr.ErrDataSource, cause)

		So(errors.Is(err, cause), ShouldBeTrue)
		So(errors.Is(err, apperr.ErrDataSource), ShouldBeTrue)
		So(apperr.Message(err), ShouldEqual, "connection refused")
		So(err.Error(), ShouldEqual, "provider.load: connection refused")
	})

	Convey("Errors outside the taxonomy have no kind", t, func() {
		So(apperr.KindOf(errors.New("boom")), ShouldBeNil)
		So(apperr.KindOf(nil), ShouldBeNil)
		So(apperr.Wrap("x", nil), ShouldBeNil)
		So(apperr.WrapKind("x", apperr.ErrValidation, nil), ShouldBeNil)
	})

	Convey("Newf formats the message", t, func() {
		err := apperr.Newf("review.save", apperr.ErrValidation, "expected %d section scores, got %d", 5, 3)
		So(apperr.IsValidation(err), ShouldBeTrue)
		So(apperr.Message(err), ShouldEqual, "expected 5 section scores, got 3")
	})
}
