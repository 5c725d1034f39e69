package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lurnix/course-app/internal/auth"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/service"
)

const oidcStateCookie = "oidc_state"

// AuthHandler serves local signup/login and the delegated-provider flow.
type AuthHandler struct {
	authService service.AuthService
	resolver    auth.SessionResolver
	provider    auth.DelegatedProvider
	codec       *auth.TokenCodec
}

// NewAuthHandler creates an AuthHandler. provider may be nil when delegated
// login is disabled.
func NewAuthHandler(authService service.AuthService, resolver auth.SessionResolver, provider auth.DelegatedProvider, codec *auth.TokenCodec) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		resolver:    resolver,
		provider:    provider,
		codec:       codec,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Signup registers a local instructor account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, "User already exists")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and sets the signed "auth" session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	c.SetCookie(auth.CookieAuth, token, int(h.codec.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout clears both session cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieAuth, "", -1, "/", "", false, true)
	c.SetCookie(auth.CookieProvider, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OIDCLogin redirects to the delegated identity provider.
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	if h.provider == nil {
		abortWithError(c, http.StatusNotFound, "Delegated login is not configured")
		return
	}
	state := uuid.New().String()
	c.SetCookie(oidcStateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// OIDCCallback exchanges the authorization code, provisions the user on
// first login, and stores the verified ID token in the provider cookie.
func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	if h.provider == nil {
		abortWithError(c, http.StatusNotFound, "Delegated login is not configured")
		return
	}

	expectedState, err := c.Cookie(oidcStateCookie)
	if err != nil || c.Query("state") != expectedState {
		abortWithError(c, http.StatusBadRequest, "State mismatch")
		return
	}
	c.SetCookie(oidcStateCookie, "", -1, "/", "", false, true)

	rawIDToken, identity, err := h.provider.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Provider exchange failed")
		return
	}

	if _, err := h.resolver.EnsureUser(c.Request.Context(), identity); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to provision account")
		return
	}

	c.SetCookie(auth.CookieProvider, rawIDToken, int(h.codec.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// Me echoes the resolved session.
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read session")
		return
	}
	c.JSON(http.StatusOK, session)
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

// UpdateProfile lets the signed-in user change their own profile fields.
// Absent fields are left as they are.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	session, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read session")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if req.Name != nil && *req.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Name cannot be empty")
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), session.UserID, repository.ProfileUpdate{
		Name:     req.Name,
		Bio:      req.Bio,
		Website:  req.Website,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "User not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
