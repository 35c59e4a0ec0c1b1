package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/docupilot-ai/docupilot/pkg/services"
)

// signupHandler serves POST /api/auth/signup. Email-only signup: the account
// is created on first use and a session token is returned.
func (s *Server) signupHandler(c *echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := services.NewUserService(s.db.Client).
		GetOrCreateUser(c.Request().Context(), req.Email, "", req.DisplayName)
	if err != nil {
		return mapServiceError(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token, User: toUserResponse(user)})
}

// googleLoginHandler serves POST /api/auth/google, exchanging a Google ID
// token for a session token.
func (s *Server) googleLoginHandler(c *echo.Context) error {
	if s.google == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "google login is not configured")
	}

	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id_token field is required")
	}

	identity, err := s.google.Verify(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid google token")
	}

	user, err := services.NewUserService(s.db.Client).
		GetOrCreateUser(c.Request().Context(), identity.Email, identity.Subject, identity.Name)
	if err != nil {
		return mapServiceError(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token, User: toUserResponse(user)})
}

// authConfigHandler serves GET /api/auth/config so clients can discover
// which login methods are enabled.
func (s *Server) authConfigHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, AuthConfigResponse{
		GoogleEnabled:  s.google != nil,
		GoogleClientID: s.cfg.Auth.GoogleClientID,
	})
}

// userSelfHandler serves GET /api/users/me.
func (s *Server) userSelfHandler(c *echo.Context) error {
	user, err := services.NewUserService(s.db.Client).
		GetUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// userDocumentsHandler serves GET /api/users/me/documents.
func (s *Server) userDocumentsHandler(c *echo.Context) error {
	docs, err := services.NewDocumentService(s.db.Client).
		ListByOwner(c.Request().Context(), currentUserID(c))
	if err != nil {
		return mapServiceError(err)
	}
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	return c.JSON(http.StatusOK, out)
}

// userCostHandler serves GET /api/users/me/cost, reporting the user's
// accumulated LLM spend against the configured ceiling.
func (s *Server) userCostHandler(c *echo.Context) error {
	user, err := services.NewUserService(s.db.Client).
		GetUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, CostResponse{
		CostAccum: user.CostAccum,
		Limit:     s.cfg.Costs.Limit,
	})
}
