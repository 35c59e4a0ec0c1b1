package api

import (
	"time"

	"github.com/docupilot-ai/docupilot/ent"
)

// DocumentResponse is the REST representation of a document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	SourceURL  string    `json:"source_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserResponse is the REST representation of a user.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CostResponse reports a user's spend against the ceiling.
type CostResponse struct {
	CostAccum float64 `json:"cost_accum"`
	Limit     float64 `json:"limit"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// AuthConfigResponse tells clients which login methods are available.
type AuthConfigResponse struct {
	GoogleEnabled  bool   `json:"google_enabled"`
	GoogleClientID string `json:"google_client_id,omitempty"`
}

// HealthCheck is one component's health report.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Checks      map[string]HealthCheck `json:"checks"`
	ActiveTasks int                    `json:"active_tasks"`
	Connections int                    `json:"connections"`
}

func toDocumentResponse(doc *ent.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		Status:     string(doc.Status),
		ChunkCount: doc.Meta.ChunkCount,
		SourceURL:  doc.Meta.SourceURL,
		CreatedAt:  doc.CreatedAt,
	}
}

func toUserResponse(user *ent.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}
