package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/service"
)

func TestParseTicketQuery(t *testing.T) {
	Convey("Given an app that echoes the parsed listing filter", t, func() {
		var got service.TicketListFilter
		app := fiber.New()
		app.Get("/tickets", func(c *fiber.Ctx) error {
			got = parseTicketQuery(c)
			return c.SendStatus(fiber.StatusNoContent)
		})
		query := func(raw string) service.TicketListFilter {
			resp, err := app.Test(httptest.NewRequest("GET", "/tickets"+raw, nil), -1)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, fiber.StatusNoContent)
			return got
		}

		Convey("Defaults give the first page of twenty", func() {
			f := query("")
			So(f.Limit, ShouldEqual, 20)
			So(f.Offset, ShouldEqual, 0)
		})

		Convey("Oversized pages are clamped before the offset is computed", func() {
			f := query("?page=2&page_size=1000")
			So(f.Limit, ShouldEqual, service.MaxTicketPageSize)
			So(f.Offset, ShouldEqual, service.MaxTicketPageSize)
		})

		Convey("Bad numbers fall back to defaults", func() {
			f := query("?page=-3&page_size=abc")
			So(f.Limit, ShouldEqual, 20)
			So(f.Offset, ShouldEqual, 0)
		})

		Convey("Statuses are split and upper-cased", func() {
			f := query("?status=todo,%20in_progress")
			So(f.Statuses, ShouldResemble, []domain.TicketStatus{domain.TicketStatusTodo, domain.TicketStatusInProgress})
		})
	})
}
