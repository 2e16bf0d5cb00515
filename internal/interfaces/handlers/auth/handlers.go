package auth

import (
	"errors"

	authsvc "nexar-backend/internal/application/auth"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/response"
	"nexar-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	SellerType string `json:"seller_type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// confirmLinks are offered when a confirmation link cannot be used.
var confirmLinks = fiber.Map{"login": "/auth", "home": "/"}

// Signup POST /api/v1/auth/signup: create account and mail the confirmation link.
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Signup(c.UserContext(), authsvc.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		Location:   req.Location,
		SellerType: req.SellerType,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Account created. Check your email to confirm your address.", fiber.Map{
		"profile": p,
	}, nil)
}

// ResendConfirmation POST /api/v1/auth/confirm/resend: always succeeds.
func (h *Handlers) ResendConfirmation(c *fiber.Ctx) error {
	var req EmailRequest
	_ = c.BodyParser(&req)
	if req.Email == "" {
		return response.ValidationFailed(c, map[string]string{"email": "Email is required"})
	}
	if err := h.Service.ResendConfirmation(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "If the account exists and is not confirmed, a new link has been sent", nil, nil)
}

// Confirm POST /api/v1/auth/confirm: consume the signup link and open a session.
func (h *Handlers) Confirm(c *fiber.Ctx) error {
	var req TokenRequest
	_ = c.BodyParser(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		return response.Error(c, authsvc.ErrConfirmLinkInvalid.Error(), fiber.StatusBadRequest, fiber.Map{"links": confirmLinks})
	}
	summary, err := h.Service.ConfirmEmail(c.UserContext(), req.Token)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.openSession(c, summary); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Email confirmed", fiber.Map{"user": summary}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, track it and set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	summary, err := h.Service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.openSession(c, summary); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": summary}, nil)
}

// Me GET /api/v1/auth/me: the session's account, re-read from the database.
func (h *Handlers) Me(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		log.Debug().Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").Msg("auth/me: no session user")
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	summary, err := h.Service.Me(c.UserContext(), u.UserID)
	if err != nil {
		if errors.Is(err, authsvc.ErrAccountSuspended) || errors.Is(err, authsvc.ErrNotAuthenticated) {
			middleware.DestroySession(c, h.Rdb)
			h.clearCookie(c)
		}
		return h.fail(c, err)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": summary}, nil)
}

// Logout DELETE /api/v1/auth/logout: destroy the session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	middleware.DestroySession(c, h.Rdb)
	h.clearCookie(c)
	return response.Success(c, "Logged out successfully", nil, nil)
}

// RequestPasswordReset POST /api/v1/auth/password-reset/request: always 200.
func (h *Handlers) RequestPasswordReset(c *fiber.Ctx) error {
	var req EmailRequest
	_ = c.BodyParser(&req)
	if req.Email == "" {
		return response.ValidationFailed(c, map[string]string{"email": "Email is required"})
	}
	if err := h.Service.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "If an account exists for this email, a reset link has been sent", nil, nil)
}

// VerifyResetToken GET /api/v1/auth/password-reset/verify?token=
func (h *Handlers) VerifyResetToken(c *fiber.Ctx) error {
	if err := h.Service.VerifyResetToken(c.UserContext(), c.Query("token")); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Reset link is valid", fiber.Map{"valid": true}, nil)
}

// ResetPassword POST /api/v1/auth/password-reset: set the new password and log out everywhere.
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	err := h.Service.ResetPassword(c.UserContext(), authsvc.ResetPasswordInput{
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return h.fail(c, err)
	}
	middleware.DestroySession(c, h.Rdb)
	h.clearCookie(c)
	return response.Success(c, "Password updated. Please log in with your new password.", fiber.Map{"redirect": "/auth"}, nil)
}

func (h *Handlers) openSession(c *fiber.Ctx, summary *authsvc.Summary) error {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, summary.SessionUser())
	if err := middleware.TrackUserSession(c.UserContext(), h.Rdb, summary.ID, sessionID); err != nil {
		return err
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)
	return nil
}

func (h *Handlers) clearCookie(c *fiber.Ctx) {
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr)
	case errors.Is(err, authsvc.ErrEmailPasswordRequired):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrNotAuthenticated):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, authsvc.ErrEmailTaken):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, authsvc.ErrEmailNotConfirmed), errors.Is(err, authsvc.ErrAccountSuspended):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, authsvc.ErrConfirmLinkInvalid):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"links": confirmLinks})
	case errors.Is(err, authsvc.ErrResetLinkInvalid):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("auth: request failed")
	return response.InternalError(c)
}
