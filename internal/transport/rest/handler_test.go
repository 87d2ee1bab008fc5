package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
	"barberapp/internal/service"
	"barberapp/pkg/auth"
	"barberapp/pkg/validator"
)

var registerOnce sync.Once

// Embedded interfaces panic on methods a test does not stub.
type fakeAppointmentService struct {
	service.AppointmentService
	reserve      func(domain.Principal, domain.CreateAppointmentDTO) (*domain.Appointment, error)
	availability func(uuid.UUID, string, string) (*domain.Availability, error)
}

func (f *fakeAppointmentService) Reserve(_ context.Context, p domain.Principal, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	return f.reserve(p, dto)
}

func (f *fakeAppointmentService) Availability(_ context.Context, barberID uuid.UUID, date, svc string) (*domain.Availability, error) {
	return f.availability(barberID, date, svc)
}

func (f *fakeAppointmentService) ListForBarber(_ context.Context, _ domain.Principal, _ string, _ []domain.AppointmentStatus) ([]domain.Appointment, error) {
	return nil, nil
}

type fakeChatService struct {
	service.ChatService
	appended []domain.Principal
}

func (f *fakeChatService) Append(_ context.Context, p domain.Principal, dto domain.SendMessageDTO) (*domain.Message, error) {
	f.appended = append(f.appended, p)
	return &domain.Message{ID: uuid.New(), Seq: 1, Sender: p.UserID, SenderType: p.Role.SenderType(), Content: dto.Content}, nil
}

type fakeUserService struct {
	service.UserService
}

func (fakeUserService) GetByID(_ context.Context, p domain.Principal, id uuid.UUID) (*domain.User, error) {
	if p.UserID != id && !p.IsAdmin() {
		return nil, domain.NewForbiddenError("FORBIDDEN", "you cannot view this profile")
	}
	return &domain.User{ID: id, Name: "Alex", Role: p.Role}, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type testEnv struct {
	router *gin.Engine
	tokens *auth.TokenManager
	appts  *fakeAppointmentService
	chat   *fakeChatService
}

func newTestEnv(t *testing.T, health HealthChecker) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registerOnce.Do(func() {
		if err := validator.RegisterGin(); err != nil {
			t.Fatal(err)
		}
	})

	tokens, err := auth.NewTokenManager("test-secret", "")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		router: gin.New(),
		tokens: tokens,
		appts:  &fakeAppointmentService{},
		chat:   &fakeChatService{},
	}

	services := &service.Services{User: fakeUserService{}, Appointment: env.appts, Chat: env.chat}
	cfg := &config.Config{HTTP: config.HTTPConfig{BasePath: "/api"}}

	NewHandler(services, tokens, nil, health, zap.NewNop(), cfg).InitRoutes(env.router)
	return env
}

func (e *testEnv) token(t *testing.T, role domain.UserRole) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := e.tokens.NewToken(id, string(role), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return id, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func reservationBody() map[string]any {
	return map[string]any{
		"barberId":        uuid.NewString(),
		"service":         map[string]any{"name": "Haircut", "duration": 30, "price": 25},
		"appointmentDate": "2030-03-11T10:00:00Z",
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/appointments", tt.token, reservationBody())
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			body := decode(t, w)
			if body.Success || body.Error == nil || body.Error.Code == "" {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestCreateAppointment_Created(t *testing.T) {
	env := newTestEnv(t, nil)
	userID, token := env.token(t, domain.UserRoleUser)

	env.appts.reserve = func(p domain.Principal, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
		if p.UserID != userID || p.Role != domain.UserRoleUser {
			t.Errorf("principal = %+v", p)
		}
		return &domain.Appointment{ID: uuid.New(), UserID: p.UserID, Status: domain.AppointmentStatusPending, AppointmentDate: dto.AppointmentDate}, nil
	}

	w := env.do(http.MethodPost, "/api/appointments", token, reservationBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	var data struct {
		Appointment domain.Appointment `json:"appointment"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !body.Success || data.Appointment.Status != domain.AppointmentStatusPending {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestCreateAppointment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot taken", domain.ErrSlotUnavailable, http.StatusConflict, "SLOT_UNAVAILABLE"},
		{"past", domain.ErrSlotInPast, http.StatusBadRequest, "SLOT_IN_PAST"},
		{"busy", domain.ErrBookingBusy, http.StatusServiceUnavailable, "BOOKING_BUSY"},
		{"forbidden", domain.ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
		{"not found", domain.ErrBarberNotFound, http.StatusNotFound, "BARBER_NOT_FOUND"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			_, token := env.token(t, domain.UserRoleUser)
			env.appts.reserve = func(domain.Principal, domain.CreateAppointmentDTO) (*domain.Appointment, error) {
				return nil, tt.err
			}

			w := env.do(http.MethodPost, "/api/appointments", token, reservationBody())
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			body := decode(t, w)
			if body.Success || body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("body = %s", w.Body.String())
			}
			if tt.wantStatus == http.StatusServiceUnavailable && w.Header().Get("Retry-After") != "1" {
				t.Error("503 responses must carry Retry-After")
			}
			if tt.wantStatus == http.StatusInternalServerError && body.Error.Message == "connection reset" {
				t.Error("internal errors must not leak details")
			}
		})
	}
}

func TestCreateAppointment_BindingErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.token(t, domain.UserRoleUser)

	body := reservationBody()
	body["barberId"] = "not-a-uuid"

	w := env.do(http.MethodPost, "/api/appointments", token, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decode(t, w); got.Error == nil || got.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAvailability(t *testing.T) {
	env := newTestEnv(t, nil)
	barberID := uuid.New()

	env.appts.availability = func(id uuid.UUID, date, svc string) (*domain.Availability, error) {
		if id != barberID || date != "2030-03-11" || svc != "Haircut" {
			t.Errorf("got %s %s %s", id, date, svc)
		}
		return &domain.Availability{BarberID: id, Date: date, Duration: 30, Slots: []domain.Slot{{Display: "9:00 am"}}}, nil
	}

	w := env.do(http.MethodGet, "/api/appointments/availability?barberId="+barberID.String()+"&date=2030-03-11&service=Haircut", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var data domain.Availability
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Slots) != 1 || data.Slots[0].Display != "9:00 am" {
		t.Errorf("slots = %+v", data.Slots)
	}

	if w := env.do(http.MethodGet, "/api/appointments/availability?barberId=x&date=2030-03-11", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad barberId: status = %d", w.Code)
	}
}

func TestBarberOnlyRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	_, userToken := env.token(t, domain.UserRoleUser)
	w := env.do(http.MethodGet, "/api/appointments/barber", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("user: status = %d, want 403", w.Code)
	}

	_, barberToken := env.token(t, domain.UserRoleBarber)
	w = env.do(http.MethodGet, "/api/appointments/barber", barberToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("barber: status = %d, body %s", w.Code, w.Body.String())
	}
	if string(decode(t, w).Data) != `{"appointments":[]}` {
		t.Errorf("data = %s", decode(t, w).Data)
	}
}

func TestSendMessage_SenderFromToken(t *testing.T) {
	env := newTestEnv(t, nil)
	barberUser, token := env.token(t, domain.UserRoleBarber)

	w := env.do(http.MethodPost, "/api/chat/message", token, map[string]any{"chatId": uuid.NewString(), "content": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if len(env.chat.appended) != 1 || env.chat.appended[0].UserID != barberUser || env.chat.appended[0].Role != domain.UserRoleBarber {
		t.Errorf("principal = %+v", env.chat.appended)
	}

	var data struct {
		Message domain.Message `json:"message"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Message.SenderType != domain.SenderTypeBarber {
		t.Errorf("senderType = %s", data.Message.SenderType)
	}

	if w := env.do(http.MethodPost, "/api/chat/message", token, map[string]any{"chatId": uuid.NewString()}); w.Code != http.StatusBadRequest {
		t.Errorf("missing content: status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	if w := newTestEnv(t, fakeHealth{}).do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("healthy: status = %d", w.Code)
	}
	if w := newTestEnv(t, fakeHealth{err: errors.New("down")}).do(http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: status = %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	w := newTestEnv(t, nil).do(http.MethodOptions, "/api/appointments", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS header")
	}
}
