package api

import (
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorClass(t *testing.T) {
	Convey("Status codes map to low-cardinality classes", t, func() {
		So(errorClass(http.StatusBadRequest), ShouldEqual, "client_error")
		So(errorClass(http.StatusUnauthorized), ShouldEqual, "auth")
		So(errorClass(http.StatusForbidden), ShouldEqual, "auth")
		So(errorClass(http.StatusNotFound), ShouldEqual, "not_found")
		So(errorClass(http.StatusConflict), ShouldEqual, "conflict")
		So(errorClass(http.StatusTooManyRequests), ShouldEqual, "backpressure")
		So(errorClass(http.StatusServiceUnavailable), ShouldEqual, "server_error")
	})
}
