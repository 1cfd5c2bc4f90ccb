package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zuripay/zuripay/internal/security"
	"github.com/zuripay/zuripay/internal/user"
	"github.com/zuripay/zuripay/internal/verification"
)

// Handler exposes the registration, verification and login endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type accountResponse struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phone_number"`
	Status          string     `json:"status"`
	IsEmailVerified bool       `json:"is_email_verified"`
	ReferralCode    string     `json:"referral_code"`
	CreatedAt       time.Time  `json:"created_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
}

func toAccountResponse(a user.Account) accountResponse {
	return accountResponse{
		ID:              a.ID,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		PhoneNumber:     a.PhoneNumber,
		Status:          string(a.Status),
		IsEmailVerified: a.IsEmailVerified,
		ReferralCode:    a.ReferralCode,
		CreatedAt:       a.CreatedAt,
		EmailVerifiedAt: a.EmailVerifiedAt,
	}
}

type registerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	InviteCode  string `json:"invite_code"`
}

// Register handles account creation.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	}
	result, err := h.svc.Register(c.UserContext(), RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		InviteCode:  req.InviteCode,
	})
	if err != nil {
		return failFrom(c, err)
	}
	body := fiber.Map{
		"status": "success",
		"user":   toAccountResponse(result.Account),
	}
	if result.VerificationCode != "" {
		body["verification_code"] = result.VerificationCode
	} else {
		body["message"] = "we've sent a verification email to your mail"
	}
	return c.Status(http.StatusCreated).JSON(body)
}

type verifyEmailRequest struct {
	OTP string `json:"otp"`
}

// VerifyEmail consumes an email-verification code.
func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	}
	account, err := h.svc.VerifyEmail(c.UserContext(), req.OTP)
	if err != nil {
		return failFrom(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "your email has been verified",
		"user":    toAccountResponse(account),
	})
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

// ResendVerification re-issues the email-verification code.
func (h *Handler) ResendVerification(c *fiber.Ctx) error {
	var req resendVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	}
	code, err := h.svc.ResendVerification(c.UserContext(), req.Email)
	if err != nil {
		return failFrom(c, err)
	}
	body := fiber.Map{"status": "success", "message": "verification code sent"}
	if code != "" {
		body["verification_code"] = code
	}
	return c.Status(http.StatusOK).JSON(body)
}

type loginRequest struct {
	LoginOption        string `json:"login_option"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	PhoneNumber        string `json:"phone_number"`
	PushNotificationID string `json:"push_notification_id"`
}

// Login dispatches to the email+password or phone+OTP path based on the
// caller's declared login option.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	}

	switch req.LoginOption {
	case "email":
		session, err := h.svc.LoginWithPassword(c.UserContext(), req.Email, req.Password, req.PushNotificationID)
		if err != nil {
			return failFrom(c, err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status": "success",
			"user":   toAccountResponse(session.Account),
			"token":  session.Credential,
		})
	case "phone":
		otp, err := h.svc.RequestOTP(c.UserContext(), req.PhoneNumber)
		if err != nil {
			return failFrom(c, err)
		}
		body := fiber.Map{"status": "success", "message": "OTP sent successfully"}
		if otp != "" {
			body["token"] = otp
		}
		return c.Status(http.StatusOK).JSON(body)
	default:
		return fail(c, http.StatusBadRequest, "invalid_input", "login_option must be \"email\" or \"phone\"")
	}
}

type verifyOTPRequest struct {
	OTP                string `json:"otp"`
	PushNotificationID string `json:"push_notification_id"`
}

// VerifyOTP completes the phone login path.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	}
	session, err := h.svc.VerifyOTP(c.UserContext(), req.OTP, req.PushNotificationID)
	if err != nil {
		return failFrom(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status": "success",
		"user":   toAccountResponse(session.Account),
		"token":  session.Credential,
	})
}

// failFrom maps the closed set of business failures to a stable machine
// readable kind. Anything unmatched is a transient persistence or delivery
// failure: the caller may retry, and no internal detail leaks.
func failFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return fail(c, http.StatusBadRequest, "email_taken", err.Error())
	case errors.Is(err, ErrPhoneTaken):
		return fail(c, http.StatusBadRequest, "phone_taken", err.Error())
	case errors.Is(err, ErrInvalidInviteCode):
		return fail(c, http.StatusBadRequest, "invalid_invite_code", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, ErrEmailNotVerified):
		return fail(c, http.StatusForbidden, "email_not_verified", err.Error())
	case errors.Is(err, ErrAccountNotFound):
		return fail(c, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, verification.ErrInvalidToken):
		return fail(c, http.StatusBadRequest, "invalid_token", err.Error())
	case errors.Is(err, verification.ErrTokenExpired):
		return fail(c, http.StatusBadRequest, "expired_token", err.Error())
	case errors.Is(err, verification.ErrInvalidOTP):
		return fail(c, http.StatusBadRequest, "invalid_otp", err.Error())
	case errors.Is(err, security.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, user.ErrNotFound):
		return fail(c, http.StatusNotFound, "not_found", err.Error())
	default:
		return fail(c, http.StatusServiceUnavailable, "transient_failure", "temporary failure, please retry")
	}
}

func fail(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"kind":    kind,
		"message": message,
	})
}
