package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/auth"
	"github.com/docupilot-ai/docupilot/pkg/blob"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/conversation"
	"github.com/docupilot-ai/docupilot/pkg/costs"
	"github.com/docupilot-ai/docupilot/pkg/document"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/llm"
	"github.com/docupilot-ai/docupilot/pkg/queue"
	testdb "github.com/docupilot-ai/docupilot/test/database"
)

// testServer wires the full stack against a real database, a scripted
// chatter, and an in-memory blob store, served over httptest.
type testServer struct {
	http    *httptest.Server
	cfg     *config.Config
	chatter *llm.StubChatter
}

func newTestServer(t *testing.T, responses ...string) *testServer {
	t.Helper()
	t.Setenv("JWT_SECRET", "server-test-secret")

	db := testdb.NewTestClient(t)
	cfg := config.Default()

	bus := events.NewBus(cfg.Bus.HighWaterMark)
	bus.Initialize(context.Background())
	t.Cleanup(bus.Shutdown)

	registry := events.NewRegistry(cfg.Conn.QueueCapacity, cfg.Conn.PutTimeout)
	registry.Attach(bus)

	sched := queue.NewScheduler(bus, queue.NewEntSessions(db.Client), &cfg.Scheduler)
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	chatter := llm.NewStubChatter(responses...)
	conversation.NewEngine(bus, cfg, chatter, costs.NewGuard(&cfg.Costs)).Register(sched)
	document.NewEngine(bus).Register(sched)

	tokens, err := auth.NewTokenService(&cfg.Auth)
	require.NoError(t, err)

	server := NewServer(cfg, db, bus, registry, sched, tokens, nil, blob.NewMemoryStore())
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testServer{http: ts, cfg: cfg, chatter: chatter}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *testServer) signup(t *testing.T, email string) TokenResponse {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":        email,
		"display_name": "Test Reader",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[TokenResponse](t, resp)
}

func (ts *testServer) upload(t *testing.T, token, filename, content string) DocumentResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, ts.http.URL+"/api/documents/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[DocumentResponse](t, resp)
}

func TestSignupIssuesUsableToken(t *testing.T) {
	ts := newTestServer(t)

	issued := ts.signup(t, "reader@example.com")
	require.NotEmpty(t, issued.Token)
	assert.Equal(t, "reader@example.com", issued.User.Email)

	resp := ts.request(t, http.MethodGet, "/api/users/me", issued.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[UserResponse](t, resp)
	assert.Equal(t, issued.User.ID, me.ID)

	resp = ts.request(t, http.MethodGet, "/api/users/me/cost", issued.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cost := decodeBody[CostResponse](t, resp)
	assert.Zero(t, cost.CostAccum)
	assert.Equal(t, ts.cfg.Costs.Limit, cost.Limit)

	// Signing up again with the same email reuses the account.
	again := ts.signup(t, "reader@example.com")
	assert.Equal(t, issued.User.ID, again.User.ID)
}

func TestUserEndpointsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/users/me", "/api/users/me/documents", "/api/users/me/cost"} {
		resp := ts.request(t, http.MethodGet, path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestUploadAndRetrieveDocument(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "uploader@example.com")

	content := "# Field Notes\n\nAlpha section.\n\nBeta section."
	doc := ts.upload(t, issued.Token, "notes.md", content)
	assert.Equal(t, "Field Notes", doc.Title)
	assert.Equal(t, "ready", doc.Status)
	assert.Greater(t, doc.ChunkCount, 0)

	resp := ts.request(t, http.MethodGet, "/api/users/me/documents", issued.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := decodeBody[[]DocumentResponse](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)

	resp = ts.request(t, http.MethodGet, "/api/documents/"+doc.ID+"/file", issued.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown", resp.Header.Get("Content-Type"))
	original, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, string(original))

	// Strangers cannot fetch the original.
	resp = ts.request(t, http.MethodGet, "/api/documents/"+doc.ID+"/file", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.request(t, http.MethodDelete, "/api/documents/"+doc.ID, issued.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/documents/"+doc.ID+"/file", issued.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRejectsNonOwner(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.signup(t, "owner@example.com")
	other := ts.signup(t, "other@example.com")

	doc := ts.upload(t, owner.Token, "notes.txt", "Alpha section.")

	resp := ts.request(t, http.MethodDelete, "/api/documents/"+doc.ID, other.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestURLIngest(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "fetcher@example.com")

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>Remote Page</title></head>" +
			"<body><p>Alpha section.</p><p>Beta section.</p></body></html>"))
	}))
	defer source.Close()

	resp := ts.request(t, http.MethodPost, "/api/documents/url", issued.Token, map[string]string{
		"url": source.URL,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decodeBody[DocumentResponse](t, resp)
	assert.Equal(t, "Remote Page", doc.Title)
	assert.Equal(t, "ready", doc.Status)
	assert.Equal(t, source.URL, doc.SourceURL)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decodeBody[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Checks["database"].Status)
}

func TestAuthConfigWithGoogleDisabled(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/auth/config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decodeBody[AuthConfigResponse](t, resp)
	assert.False(t, cfg.GoogleEnabled)

	resp = ts.request(t, http.MethodPost, "/api/auth/google", "", map[string]string{
		"id_token": "anything",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

// dialStream opens a WebSocket on one of the stream endpoints.
func (ts *testServer) dialStream(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + path
	socket, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return socket
}

// readFrameOfType drains frames until one of the wanted type arrives.
func readFrameOfType(t *testing.T, socket *websocket.Conn, frameType string) wsFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		var frame wsFrame
		require.NoError(t, wsjson.Read(ctx, socket, &frame))
		if frame.Type == frameType {
			return frame
		}
	}
}

func TestConversationStream(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "streamer@example.com")
	doc := ts.upload(t, issued.Token, "notes.txt", "Alpha section.\n\nBeta section.")

	socket := ts.dialStream(t, "/api/conversations/stream/"+doc.ID+"?token="+issued.Token)
	defer socket.CloseNow()
	ctx := context.Background()

	// Empty list first.
	err := wsjson.Write(ctx, socket, wsFrame{Type: "conversation.list", RequestID: "r1"})
	require.NoError(t, err)
	frame := readFrameOfType(t, socket, "conversation.list.completed")
	assert.Equal(t, "r1", frame.RequestID)

	// Creating the main conversation round-trips through the scheduler.
	err = wsjson.Write(ctx, socket, wsFrame{Type: "conversation.main.create", RequestID: "r2"})
	require.NoError(t, err)
	frame = readFrameOfType(t, socket, "conversation.main.create.completed")
	assert.Equal(t, "r2", frame.RequestID)
	var created struct {
		ConversationID string `json:"conversation_id"`
		Created        bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &created))
	assert.True(t, created.Created)
	assert.NotEmpty(t, created.ConversationID)

	// Unknown frame types get an immediate error reply.
	err = wsjson.Write(ctx, socket, wsFrame{Type: "bogus.frame", RequestID: "r3"})
	require.NoError(t, err)
	frame = readFrameOfType(t, socket, "bogus.frame.error")
	assert.Equal(t, "r3", frame.RequestID)
	var errData events.ErrorData
	require.NoError(t, json.Unmarshal(frame.Data, &errData))
	assert.Equal(t, events.KindValidation, errData.Kind)
}

func TestDocumentStream(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "navigator@example.com")
	doc := ts.upload(t, issued.Token, "notes.txt", "Alpha section.\n\nBeta section.")

	socket := ts.dialStream(t, "/api/documents/stream/"+doc.ID+"?token="+issued.Token)
	defer socket.CloseNow()

	err := wsjson.Write(context.Background(), socket, wsFrame{Type: "document.metadata", RequestID: "m1"})
	require.NoError(t, err)
	frame := readFrameOfType(t, socket, "document.metadata.completed")
	assert.Equal(t, "m1", frame.RequestID)

	// Conversation frames are not accepted on the document stream.
	err = wsjson.Write(context.Background(), socket, wsFrame{Type: "conversation.list", RequestID: "m2"})
	require.NoError(t, err)
	frame = readFrameOfType(t, socket, "conversation.list.error")
	assert.Equal(t, "m2", frame.RequestID)
}

func TestStreamClosesUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "private@example.com")
	doc := ts.upload(t, issued.Token, "notes.txt", "Alpha section.")

	// No token on a privately owned document.
	socket := ts.dialStream(t, "/api/conversations/stream/"+doc.ID)
	defer socket.CloseNow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var frame wsFrame
	err := wsjson.Read(ctx, socket, &frame)
	require.Error(t, err)
	assert.Equal(t, CloseUnauthorized, websocket.CloseStatus(err))
}

func TestStreamAdmitsAnyoneToExampleDocument(t *testing.T) {
	ts := newTestServer(t)
	issued := ts.signup(t, "curator@example.com")
	doc := ts.upload(t, issued.Token, "notes.txt", "Alpha section.\n\nBeta section.")
	ts.cfg.ExampleDocumentIDs = []string{doc.ID}

	socket := ts.dialStream(t, "/api/conversations/stream/"+doc.ID)
	defer socket.CloseNow()

	err := wsjson.Write(context.Background(), socket, wsFrame{Type: "conversation.main.create", RequestID: "d1"})
	require.NoError(t, err)
	frame := readFrameOfType(t, socket, "conversation.main.create.completed")
	assert.Equal(t, "d1", frame.RequestID)
}
