package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupHandlerApp(t *testing.T) *fiber.App {
	t.Helper()
	f := newFixture(false)
	app := fiber.New()
	h := NewHandler(f.svc)
	app.Post("/auth/create-user", h.Register)
	app.Post("/auth/verify-email", h.VerifyEmail)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/verify-otp", h.VerifyOTP)
	return app
}

func doJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return resp.StatusCode, decoded
}

func TestRegisterVerifyLoginOverHTTP(t *testing.T) {
	app := setupHandlerApp(t)

	status, body := doJSON(t, app, "/auth/create-user",
		`{"first_name":"Ada","last_name":"Obi","email":"a@x.com","phone_number":"08011112222","password":"Secret123!"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", status, body)
	}
	code, _ := body["verification_code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected echoed verification code, got %v", body)
	}

	status, body = doJSON(t, app, "/auth/login",
		`{"login_option":"email","email":"a@x.com","password":"Secret123!"}`)
	if status != fiber.StatusForbidden || body["kind"] != "email_not_verified" {
		t.Fatalf("pre-verification login: expected 403 email_not_verified, got %d %v", status, body)
	}

	status, _ = doJSON(t, app, "/auth/verify-email", `{"otp":"`+code+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("verify email: expected 200, got %d", status)
	}

	status, body = doJSON(t, app, "/auth/login",
		`{"login_option":"email","email":"a@x.com","password":"Secret123!","push_notification_id":"push-1"}`)
	if status != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d (%v)", status, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected session token, got %v", body)
	}
}

func TestOTPLoginOverHTTP(t *testing.T) {
	app := setupHandlerApp(t)

	if status, _ := doJSON(t, app, "/auth/create-user",
		`{"first_name":"Ada","last_name":"Obi","email":"a@x.com","phone_number":"08011112222","password":"Secret123!"}`); status != fiber.StatusCreated {
		t.Fatalf("register failed with %d", status)
	}

	status, body := doJSON(t, app, "/auth/login", `{"login_option":"phone","phone_number":"08011112222"}`)
	if status != fiber.StatusOK {
		t.Fatalf("request otp: expected 200, got %d", status)
	}
	otp, _ := body["token"].(string)
	if len(otp) != 6 {
		t.Fatalf("expected echoed otp, got %v", body)
	}

	status, body = doJSON(t, app, "/auth/verify-otp", `{"otp":"999999x"}`)
	if status != fiber.StatusBadRequest || body["kind"] != "invalid_otp" {
		t.Fatalf("wrong otp: expected 400 invalid_otp, got %d %v", status, body)
	}

	status, body = doJSON(t, app, "/auth/verify-otp", `{"otp":"`+otp+`","push_notification_id":"push-2"}`)
	if status != fiber.StatusOK {
		t.Fatalf("verify otp: expected 200, got %d (%v)", status, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected session token, got %v", body)
	}

	status, body = doJSON(t, app, "/auth/verify-otp", `{"otp":"`+otp+`"}`)
	if status != fiber.StatusBadRequest || body["kind"] != "invalid_otp" {
		t.Fatalf("replayed otp: expected 400 invalid_otp, got %d %v", status, body)
	}
}

func TestUnknownLoginOptionRejected(t *testing.T) {
	app := setupHandlerApp(t)
	status, body := doJSON(t, app, "/auth/login", `{"login_option":"carrier-pigeon"}`)
	if status != fiber.StatusBadRequest || body["kind"] != "invalid_input" {
		t.Fatalf("expected 400 invalid_input, got %d %v", status, body)
	}
}
