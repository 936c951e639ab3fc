package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-assigner/internal/api/http/handlers"
	"github.com/spec-kit/ticket-assigner/internal/auth"
	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/observability"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	"github.com/spec-kit/ticket-assigner/internal/service"
	"github.com/spec-kit/ticket-assigner/internal/skills"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = fmt.Sprintf("u%d", len(m.users)+1)
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(context.Context, repository.UserFilter) ([]domain.User, error) {
	return nil, nil
}

func (m *memUsers) ListModerators(context.Context) ([]domain.User, error) {
	return nil, nil
}

type stubEngine struct {
	result *service.AssignmentResult
	err    error
	bulk   *service.BulkResult
}

func (s *stubEngine) AutoAssign(context.Context, string) (*service.AssignmentResult, error) {
	return s.result, s.err
}

func (s *stubEngine) Recommend(context.Context, string) ([]service.Candidate, error) {
	return []service.Candidate{{Moderator: domain.User{ID: "m1"}, Score: 1.5, WorkloadScore: 5}}, s.err
}

func (s *stubEngine) BulkAutoAssign(context.Context) (*service.BulkResult, error) {
	return s.bulk, s.err
}

type stubTickets struct {
	handlers.TicketWorkflow
}

type stubHistory struct{}

func (stubHistory) TicketHistory(_ context.Context, _ *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	if ticketID != "t1" {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return []domain.TicketHistory{{
		ID:            "h1",
		TicketID:      "t1",
		ChangedByType: domain.ChangeActorSystem,
		ChangeType:    domain.ChangeTypeAssignee,
		NewValue:      map[string]any{"assigned_to": "m1"},
	}}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestRouter(t *testing.T) {
	Convey("Given a fully routed app", t, func() {
		users := &memUsers{users: map[string]domain.User{
			"admin": {ID: "admin", Email: "admin@example.com", Role: domain.UserRoleAdmin},
			"plain": {ID: "plain", Email: "plain@example.com", Role: domain.UserRoleUser},
		}}
		authSvc := service.NewAuthService(
			config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost},
			service.AuthDependencies{UserRepo: users},
		)
		catalog, err := skills.DefaultCatalog()
		So(err, ShouldBeNil)
		engine := &stubEngine{}
		metrics := observability.NewMetrics()

		app := fiber.New()
		RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
		RegisterRoutes(app, RouteConfig{
			Health:         handlers.NewHealthHandler("ticket-assigner", "test", map[string]handlers.Pinger{"postgres": okPinger{}, "redis": failingPinger{}}),
			Users:          handlers.NewUsersHandler(authSvc),
			Tickets:        handlers.NewTicketsHandler(stubTickets{}),
			History:        handlers.NewHistoryHandler(stubHistory{}),
			Assignment:     handlers.NewAssignmentHandler(engine, metrics),
			Skills:         handlers.NewSkillsHandler(catalog, skills.NewExtractor(catalog)),
			AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), users, nil),
			Metrics:        metrics.Handler(),
		})

		tokenFor := func(id string, role domain.UserRole) string {
			raw, _, err := authSvc.TokenManager().GenerateToken(id, role)
			So(err, ShouldBeNil)
			return raw
		}
		do := func(method, path, token string, body any) (int, envelope, string) {
			var reader io.Reader
			if body != nil {
				payload, _ := json.Marshal(body)
				reader = bytes.NewReader(payload)
			}
			req := httptest.NewRequest(method, path, reader)
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			resp, err := app.Test(req, -1)
			So(err, ShouldBeNil)
			raw, _ := io.ReadAll(resp.Body)
			var env envelope
			_ = json.Unmarshal(raw, &env)
			return resp.StatusCode, env, string(raw)
		}

		Convey("Health endpoints report dependency state", func() {
			status, _, _ := do("GET", "/health/live", "", nil)
			So(status, ShouldEqual, 200)

			status, env, _ := do("GET", "/health/ready", "", nil)
			So(status, ShouldEqual, nethttp.StatusServiceUnavailable)
			So(env.Error.Code, ShouldEqual, "DEPENDENCY_UNAVAILABLE")
		})

		Convey("Skill extraction needs no auth", func() {
			status, env, _ := do("POST", "/skills/extract", "", map[string]string{
				"title":       "Node.js API returns 500",
				"description": "",
			})
			So(status, ShouldEqual, 200)
			var got struct{ Skills []string }
			So(json.Unmarshal(env.Data, &got), ShouldBeNil)
			So(got.Skills, ShouldContain, "Node.js")
			So(got.Skills, ShouldContain, "API")
		})

		Convey("Auto-assign with no candidate is informational", func() {
			status, env, _ := do("POST", "/tickets/t1/auto-assign", tokenFor("admin", domain.UserRoleAdmin), nil)
			So(status, ShouldEqual, 200)
			var got struct {
				Assigned bool
				Message  string
			}
			So(json.Unmarshal(env.Data, &got), ShouldBeNil)
			So(got.Assigned, ShouldBeFalse)
			So(got.Message, ShouldEqual, "no suitable moderator found")
		})

		Convey("Auto-assign of a missing ticket is a 404", func() {
			engine.err = apperrors.NewNotFound("ticket", map[string]any{"ticket_id": "nope"})
			status, env, _ := do("POST", "/tickets/nope/auto-assign", tokenFor("admin", domain.UserRoleAdmin), nil)
			So(status, ShouldEqual, 404)
			So(env.Error.Code, ShouldEqual, apperrors.CodeNotFound)
		})

		Convey("Store failures surface as 500", func() {
			engine.err = apperrors.NewStoreFailure("list moderators", errors.New("timeout"))
			status, env, _ := do("POST", "/tickets/t1/auto-assign", tokenFor("admin", domain.UserRoleAdmin), nil)
			So(status, ShouldEqual, 500)
			So(env.Error.Code, ShouldEqual, apperrors.CodeStoreFailure)
		})

		Convey("Only admins may auto-assign", func() {
			status, env, _ := do("POST", "/tickets/t1/auto-assign", tokenFor("plain", domain.UserRoleUser), nil)
			So(status, ShouldEqual, 403)
			So(env.Error.Code, ShouldEqual, apperrors.CodeForbidden)

			status, _, _ = do("POST", "/tickets/t1/auto-assign", "", nil)
			So(status, ShouldEqual, 401)
		})

		Convey("Bulk auto-assign reports counts and is counted in metrics", func() {
			engine.bulk = &service.BulkResult{Total: 3, Assigned: 2, Failed: 1, Items: []service.BulkItem{
				{TicketID: "t1", Outcome: service.OutcomeAssigned, ModeratorID: "m1", Score: 2.2},
			}}
			status, env, _ := do("POST", "/tickets/auto-assign", tokenFor("admin", domain.UserRoleAdmin), nil)
			So(status, ShouldEqual, 200)
			var got struct {
				Total, Assigned, Failed int
			}
			So(json.Unmarshal(env.Data, &got), ShouldBeNil)
			So(got.Total, ShouldEqual, 3)
			So(got.Assigned, ShouldEqual, 2)

			_, _, body := do("GET", "/metrics", "", nil)
			So(body, ShouldContainSubstring, `ticket_assigner_assignment_bulk_runs_total{trigger="api"} 1`)
		})

		Convey("Signup then login returns tokens", func() {
			status, _, _ := do("POST", "/auth/signup", "", map[string]any{
				"email": "dev@example.com", "password": "hunter2hunter2", "skills": []string{"go"},
			})
			So(status, ShouldEqual, 201)

			status, env, _ := do("POST", "/auth/login", "", map[string]string{
				"email": "dev@example.com", "password": "hunter2hunter2",
			})
			So(status, ShouldEqual, 200)
			So(string(env.Data), ShouldContainSubstring, `"token"`)
			So(string(env.Data), ShouldNotContainSubstring, "hunter2")
		})

		Convey("Ticket history is served to authenticated users", func() {
			status, env, _ := do("GET", "/tickets/t1/history", tokenFor("plain", domain.UserRoleUser), nil)
			So(status, ShouldEqual, 200)
			var got []struct {
				ChangeType string         `json:"change_type"`
				NewValue   map[string]any `json:"new_value"`
			}
			So(json.Unmarshal(env.Data, &got), ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].ChangeType, ShouldEqual, "ASSIGNEE_CHANGE")
			So(got[0].NewValue["assigned_to"], ShouldEqual, "m1")

			status, _, _ = do("GET", "/tickets/t9/history", tokenFor("plain", domain.UserRoleUser), nil)
			So(status, ShouldEqual, 404)
		})

		Convey("Unknown routes are 404", func() {
			status, env, _ := do("GET", "/nope", "", nil)
			So(status, ShouldEqual, 404)
			So(env.Error.Code, ShouldEqual, apperrors.CodeNotFound)
		})
	})
}
