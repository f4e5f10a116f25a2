package handler

// End-to-end handler tests: real router, real services, real sqlite
// (in-memory), recorded email. Only SMTP and GitHub are faked out.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chatconnect/internal/auth"
	"github.com/sakif/chatconnect/internal/repository/sqlite"
	"github.com/sakif/chatconnect/internal/service"
)

// recordingMailer captures outbound mail instead of dialing SMTP.
type recordingMailer struct {
	sent []recordedMail
}

type recordedMail struct {
	to      string
	subject string
	body    string
}

func (m *recordingMailer) Send(to, subject, htmlBody string) error {
	m.sent = append(m.sent, recordedMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type testEnv struct {
	router http.Handler
	mailer *recordingMailer
	tokens *auth.TokenService
}

// newTestEnv assembles the same stack as the server package, minus SMTP
// and GitHub, over an in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-123456")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &recordingMailer{}

	users := db.Users()
	userService := service.NewUserService(
		users, tokens, auth.NewPasswordServiceForTest(4), mailer,
		"http://localhost:8080", logger,
	)
	chatService := service.NewChatService(db.Conversations(), db.Messages(), users, logger)

	userHandler := NewUserHandler(userService, logger)
	chatHandler := NewChatHandler(chatService, logger)
	requireAuth := auth.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Route("/v1", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleSignIn)
		r.Get("/fetch-all-users", userHandler.HandleListUsers)
		r.Post("/delete", userHandler.HandleDelete)
		r.Post("/forgotPassword", userHandler.HandleForgotPassword)
		r.Post("/sso-login", userHandler.HandleSSOLogin)
		r.With(requireAuth).Get("/verification", userHandler.HandleVerification)
		r.With(requireAuth).Post("/resetPassword", userHandler.HandleResetPassword)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", chatHandler.HandleCreateConversation)
			r.Get("/", chatHandler.HandleListConversations)
			r.Get("/{id}", chatHandler.HandleGetConversation)
			r.Put("/{id}", chatHandler.HandleRenameConversation)
			r.Delete("/{id}", chatHandler.HandleDeleteConversation)
			r.Post("/{id}/members", chatHandler.HandleJoinConversation)
			r.Post("/{id}/messages", chatHandler.HandleSendMessage)
			r.Get("/{id}/messages", chatHandler.HandleListMessages)
		})
	})

	return &testEnv{router: router, mailer: mailer, tokens: tokens}
}

// do sends a JSON request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope matches both response shapes; at most one of Error and
// Message/Data is populated.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func registerBody(email, username string) map[string]string {
	return map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "secret1",
	}
}

// registeredUser is the sanitized user echoed by register/login.
type registeredUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Verification bool   `json:"verification"`
	Token        string `json:"token"`
}

// register creates a user through the endpoint and returns its response
// data.
func (e *testEnv) register(t *testing.T, email, username string) registeredUser {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/register", registerBody(email, username))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u registeredUser
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &u))
	return u
}

// registerVerified registers a user and drives the emailed verification
// flow, returning the user.
func (e *testEnv) registerVerified(t *testing.T, email, username string) registeredUser {
	t.Helper()

	u := e.register(t, email, username)
	token, err := e.tokens.Generate(auth.Identity{UserID: u.ID, Email: u.Email})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/v1/verification?token="+token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return u
}
