package http

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"agendaki/internal/domain"
	"agendaki/internal/service/auth"
	"agendaki/internal/service/bookings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBookingsService struct {
	createFn        func(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	listFn          func(ctx context.Context) ([]domain.Booking, error)
	getFn           func(ctx context.Context, id int64) (domain.Booking, error)
	updateFn        func(ctx context.Context, id int64, in bookings.UpdateInput) error
	approveFn       func(ctx context.Context, id int64) error
	deleteFn        func(ctx context.Context, id int64) error
	occupiedSlotsFn func(ctx context.Context, date string) ([]domain.OccupiedSlot, error)
	listServicesFn  func(ctx context.Context) ([]domain.Service, error)
}

func (f *fakeBookingsService) Create(ctx context.Context, in bookings.CreateInput) (domain.Booking, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeBookingsService) List(ctx context.Context) ([]domain.Booking, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeBookingsService) Get(ctx context.Context, id int64) (domain.Booking, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, id)
}

func (f *fakeBookingsService) Update(ctx context.Context, id int64, in bookings.UpdateInput) error {
	if f.updateFn == nil {
		panic("Update not configured")
	}
	return f.updateFn(ctx, id, in)
}

func (f *fakeBookingsService) Approve(ctx context.Context, id int64) error {
	if f.approveFn == nil {
		panic("Approve not configured")
	}
	return f.approveFn(ctx, id)
}

func (f *fakeBookingsService) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeBookingsService) OccupiedSlots(ctx context.Context, date string) ([]domain.OccupiedSlot, error) {
	if f.occupiedSlotsFn == nil {
		panic("OccupiedSlots not configured")
	}
	return f.occupiedSlotsFn(ctx, date)
}

func (f *fakeBookingsService) ListServices(ctx context.Context) ([]domain.Service, error) {
	if f.listServicesFn == nil {
		panic("ListServices not configured")
	}
	return f.listServicesFn(ctx)
}

type fakeAuthService struct {
	loginFn       func(ctx context.Context, username, password string) (string, error)
	setupAdminFn  func(ctx context.Context, in auth.SetupAdminInput) (domain.User, error)
	verifyTokenFn func(token string) (auth.Principal, error)
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginFn == nil {
		panic("Login not configured")
	}
	return f.loginFn(ctx, username, password)
}

func (f *fakeAuthService) SetupAdmin(ctx context.Context, in auth.SetupAdminInput) (domain.User, error) {
	if f.setupAdminFn == nil {
		panic("SetupAdmin not configured")
	}
	return f.setupAdminFn(ctx, in)
}

func (f *fakeAuthService) VerifyToken(token string) (auth.Principal, error) {
	if f.verifyTokenFn == nil {
		panic("VerifyToken not configured")
	}
	return f.verifyTokenFn(token)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(t *testing.T, bookingsSvc *fakeBookingsService, authSvc *fakeAuthService) *gin.Engine {
	t.Helper()
	log := testLogger()
	return NewRouter(
		NewBookingsHandler(bookingsSvc, log),
		NewAuthHandler(authSvc, log),
		log,
		RouterConfig{RateLimitRPS: 1000, RateLimitBurst: 1000},
	)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func allowVerify(principal auth.Principal) func(string) (auth.Principal, error) {
	return func(string) (auth.Principal, error) {
		return principal, nil
	}
}
