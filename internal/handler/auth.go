package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/service"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// AuthHandler bundles dependencies for the account and session endpoints.
type AuthHandler struct {
	Identity *service.IdentityService
	Sessions *service.SessionService
}

func NewAuthHandler(identity *service.IdentityService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{Identity: identity, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type tokenReq struct {
	Token string `json:"token"`
}
type emailReq struct {
	Email string `json:"email"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type resetCompleteReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

type userPart struct {
	ID     uint64              `json:"id"`
	Email  string              `json:"email"`
	Role   model.Role          `json:"role"`
	Status model.AccountStatus `json:"status"`
}
type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// reqCtx bounds every store call issued by a handler.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// policyReason extracts the human-readable reason from a password
// policy violation, or "" when err is something else.
func policyReason(err error) string {
	var pe *utils.PolicyError
	if errors.As(err, &pe) {
		return "password " + pe.Reason
	}
	return ""
}

// Register: create a PENDING account and queue the activation email.
// Tokens are NOT issued here; the account cannot log in until it is
// activated.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := h.Identity.Register(ctx, req.Email, req.Password)
	if err != nil {
		if reason := policyReason(err); reason != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": reason})
		}
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user":    userPart{ID: acct.ID, Email: acct.Email, Role: acct.Role, Status: acct.Status},
		"message": "check your email for the activation link",
	})
}

// Activate: spend the emailed activation token.
func (h *AuthHandler) Activate(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Identity.Activate(ctx, strings.TrimSpace(req.Token)); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "account activated"})
	case errors.Is(err, repository.ErrTokenNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "activation token not found"})
	case errors.Is(err, repository.ErrTokenConsumed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activation token already used"})
	case errors.Is(err, repository.ErrTokenExpired), errors.Is(err, repository.ErrTokenRevoked):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activation token expired; request a new one"})
	case errors.Is(err, service.ErrAccountAlreadyActive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account is already active"})
	case errors.Is(err, service.ErrAccountDisabled):
		// Soft-deleted accounts look absent to the activation flow.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activation failed"})
	}
}

// ResendActivation: revoke the outstanding activation token and mail
// a fresh one.
func (h *AuthHandler) ResendActivation(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Identity.ResendActivation(ctx, req.Email); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "activation email sent"})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrAccountDisabled):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case errors.Is(err, service.ErrAccountAlreadyActive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account is already active"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resend failed"})
	}
}

// Login: verify credentials and return a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, pair, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		if errors.Is(err, service.ErrAccountNotActive) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account is not activated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: acct.ID, Email: acct.Email, Role: acct.Role, Status: acct.Status},
		Access:  tokenPart{Token: pair.AccessToken, Expires: pair.AccessExpires},
		Refresh: tokenPart{Token: pair.RefreshToken, Expires: pair.RefreshExpires}, // raw back to client
	})
}

// Refresh: rotate the refresh token and mint a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, pair, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		if errors.Is(err, service.ErrAccountNotActive) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account is not activated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: acct.ID, Email: acct.Email, Role: acct.Role, Status: acct.Status},
		Access:  tokenPart{Token: pair.AccessToken, Expires: pair.AccessExpires},
		Refresh: tokenPart{Token: pair.RefreshToken, Expires: pair.RefreshExpires},
	})
}

// Logout: revoke the presented refresh token. Outstanding access
// tokens stay valid until their own short expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestPasswordReset: always answers 200 so the endpoint cannot be
// used to probe which emails are registered.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Identity.RequestPasswordReset(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if you are registered, you will receive an email with instructions",
	})
}

// CompletePasswordReset: spend the reset token and set the new
// password. All refresh tokens for the account are revoked.
func (h *AuthHandler) CompletePasswordReset(c echo.Context) error {
	var req resetCompleteReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Identity.ResetPassword(ctx, strings.TrimSpace(req.Token), req.Password); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "password reset successfully"})
	case policyReason(err) != "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": policyReason(err)})
	case errors.Is(err, repository.ErrTokenNotFound),
		errors.Is(err, repository.ErrTokenExpired),
		errors.Is(err, repository.ErrTokenRevoked),
		errors.Is(err, repository.ErrTokenConsumed):
		// One message for every token failure: a reset endpoint must
		// not reveal whether a guessed token ever existed.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
}

// ChangePassword: rotate the password of the logged-in account.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.Password == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password and new_password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Identity.ChangePassword(ctx, uid, req.Password, req.NewPassword); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrSamePassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password must differ from the current one"})
	case policyReason(err) != "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": policyReason(err)})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
}

// DisableAccount: admin-only soft delete. The account row survives
// with DISABLED status and all of its refresh tokens are revoked.
func (h *AuthHandler) DisableAccount(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Identity.DisableAccount(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "disable failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account disabled"})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}
