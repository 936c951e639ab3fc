package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a metrics set", t, func() {
		m := NewMetrics()

		Convey("When assignments are observed", func() {
			m.ObserveAssignment("assigned", 2.2)
			m.ObserveAssignment("assigned", 1.0)
			m.ObserveAssignment("no_candidate", 0)

			Convey("Then outcomes are counted per label", func() {
				So(testutil.ToFloat64(m.assignments.WithLabelValues("assigned")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.assignments.WithLabelValues("no_candidate")), ShouldEqual, 1)
			})

			Convey("Then only positive scores reach the histogram", func() {
				So(testutil.CollectAndCount(m.assignmentScore), ShouldEqual, 1)
			})
		})

		Convey("When requests and errors are recorded", func() {
			m.RecordRequest("/tickets/:id", "GET", 200, 15*time.Millisecond)
			m.RecordError("/tickets/:id", "GET", "NOT_FOUND")
			m.RecordBulkRun("schedule")

			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/tickets/:id", "GET", "200")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.httpErrors.WithLabelValues("/tickets/:id", "GET", "NOT_FOUND")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.bulkRuns.WithLabelValues("schedule")), ShouldEqual, 1)
		})

		Convey("When the handler is scraped", func() {
			m.RecordBulkRun("api")
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			So(rec.Code, ShouldEqual, 200)
			So(strings.Contains(rec.Body.String(), "ticket_assigner_assignment_bulk_runs_total"), ShouldBeTrue)
		})

		Convey("A nil metrics set is a no-op", func() {
			var nilMetrics *Metrics
			So(func() { nilMetrics.ObserveAssignment("assigned", 1) }, ShouldNotPanic)
			So(func() { nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond) }, ShouldNotPanic)
		})
	})
}
