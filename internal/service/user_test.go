package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sakif/chatconnect/internal/apperror"
	"github.com/sakif/chatconnect/internal/auth"
)

const testSecret = "test-secret-0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo, *fakeMailer) {
	t.Helper()

	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := NewUserService(
		repo,
		tokens,
		auth.NewPasswordServiceForTest(4),
		mailer,
		"http://localhost:8080",
		discardLogger(),
	)
	return svc, repo, mailer
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:     "a@x.com",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Archer",
		Password:  "secret1",
	}
}

// appMessage digs the client-facing message out of an error.
func appMessage(t *testing.T, err error) string {
	t.Helper()

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *apperror.AppError", err)
	}
	return appErr.Message
}

func TestRegister(t *testing.T) {
	svc, repo, mailer := newTestUserService(t)

	res, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Register() returned no token")
	}
	if res.User.Verification {
		t.Error("new users must start unverified")
	}
	if res.User.Password == "secret1" {
		t.Error("stored password was not hashed")
	}

	stored, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("user was not persisted: %v", err)
	}
	if stored.Username != "alice" {
		t.Errorf("Username = %q, want %q", stored.Username, "alice")
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("got %d emails, want 1", len(mailer.sent))
	}
	sent := mailer.sent[0]
	if sent.to != "a@x.com" {
		t.Errorf("email to = %q, want %q", sent.to, "a@x.com")
	}
	if !strings.Contains(sent.body, "/v1/verification?token=") {
		t.Error("verification email does not carry the verification link")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		message string
	}{
		{
			name:    "empty email",
			mutate:  func(in *RegisterInput) { in.Email = "" },
			message: msgFieldsEmpty,
		},
		{
			name:    "whitespace first name",
			mutate:  func(in *RegisterInput) { in.FirstName = "   " },
			message: msgFieldsEmpty,
		},
		{
			name:    "empty password",
			mutate:  func(in *RegisterInput) { in.Password = "" },
			message: msgFieldsEmpty,
		},
		{
			name:    "malformed email",
			mutate:  func(in *RegisterInput) { in.Email = "not-an-email" },
			message: msgInvalidEmail,
		},
		{
			name:    "short password",
			mutate:  func(in *RegisterInput) { in.Password = "12345" },
			message: msgWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegisterInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if got := appMessage(t, err); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	in := validRegisterInput()
	in.Username = "alice2"
	_, err := svc.Register(ctx, in)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if got := appMessage(t, err); got != msgDuplicateEmail {
		t.Errorf("message = %q, want %q", got, msgDuplicateEmail)
	}
}

func TestRegister_MailFailureDoesNotFailRegistration(t *testing.T) {
	svc, repo, mailer := newTestUserService(t)
	mailer.err = errors.New("smtp: connection refused")

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "a@x.com"); err != nil {
		t.Errorf("user should be persisted despite the mail failure: %v", err)
	}
}

// registerVerified runs register + verify, returning the stored user.
func registerVerified(t *testing.T, svc *UserService, repo *fakeUserRepo) *AuthResult {
	t.Helper()
	ctx := context.Background()

	res, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Verify(ctx, &auth.Identity{
		UserID: res.User.ID,
		Email:  res.User.Email,
	}); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	return res
}

func TestSignIn(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	registerVerified(t, svc, repo)

	res, err := svc.SignIn(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if res.Token == "" {
		t.Error("SignIn() returned no token")
	}
	if !res.User.Verification {
		t.Error("signed-in user should be verified")
	}
}

func TestSignIn_Unverified(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.SignIn(ctx, "a@x.com", "secret1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := appMessage(t, err); got != msgNotVerified {
		t.Errorf("message = %q, want %q", got, msgNotVerified)
	}
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.SignIn(context.Background(), "nobody@x.com", "secret1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := appMessage(t, err); got != msgUserNotFound {
		t.Errorf("message = %q, want %q", got, msgUserNotFound)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	registerVerified(t, svc, repo)

	_, err := svc.SignIn(context.Background(), "a@x.com", "wrong-password")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if got := appMessage(t, err); got != msgWrongPassword {
		t.Errorf("message = %q, want %q", got, msgWrongPassword)
	}
}

func TestSignIn_CredentialValidation(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "", "")
	if got := appMessage(t, err); got != msgCredentialsEmpty {
		t.Errorf("message = %q, want %q", got, msgCredentialsEmpty)
	}

	_, err = svc.SignIn(ctx, "not-an-email", "secret1")
	if got := appMessage(t, err); got != msgCredentialsFormat {
		t.Errorf("message = %q, want %q", got, msgCredentialsFormat)
	}
}

func TestList(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	registerVerified(t, svc, repo)

	summaries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].UserName != "alice" || summaries[0].Email != "a@x.com" {
		t.Errorf("summary = %+v, want alice/a@x.com", summaries[0])
	}
}

func TestList_Empty(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.List(context.Background())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := appMessage(t, err); got != msgNoRecords {
		t.Errorf("message = %q, want %q", got, msgNoRecords)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	registerVerified(t, svc, repo)
	ctx := context.Background()

	if err := svc.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "a@x.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user still present after delete: %v", err)
	}
}

func TestDelete_Validation(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation for empty email", err)
	}

	err = svc.Delete(ctx, "nobody@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestVerify_DeletedUser(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	// A valid token for a row that no longer exists.
	_, err := svc.Verify(context.Background(), &auth.Identity{
		UserID: "gone",
		Email:  "gone@x.com",
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestForgotPassword(t *testing.T) {
	svc, repo, mailer := newTestUserService(t)
	registerVerified(t, svc, repo)
	mailer.sent = nil

	res, err := svc.ForgotPassword(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	if res.Token == "" {
		t.Error("ForgotPassword() returned no token")
	}
	if res.Email != "a@x.com" || res.Username != "alice" {
		t.Errorf("result = %+v, want a@x.com/alice", res)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("got %d emails, want 1", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].body, "/v1/resetPasswordHtmlPage?token=") {
		t.Error("reset email does not carry the reset link")
	}
}

func TestForgotPassword_UnverifiedLooksUnknown(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.ForgotPassword(ctx, "a@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := appMessage(t, err); got != msgUserNotFound {
		t.Errorf("message = %q, want %q", got, msgUserNotFound)
	}
}

func TestResetPassword(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	res := registerVerified(t, svc, repo)
	ctx := context.Background()

	id := &auth.Identity{UserID: res.User.ID, Email: res.User.Email}
	if _, err := svc.ResetPassword(ctx, id, "newsecret", "newsecret"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := svc.SignIn(ctx, "a@x.com", "newsecret"); err != nil {
		t.Errorf("sign-in with new password failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, "a@x.com", "secret1"); err == nil {
		t.Error("sign-in with old password should fail after reset")
	}
}

func TestResetPassword_MismatchDoesNotMutate(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	res := registerVerified(t, svc, repo)
	ctx := context.Background()

	id := &auth.Identity{UserID: res.User.ID, Email: res.User.Email}
	_, err := svc.ResetPassword(ctx, id, "newsecret", "different")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if got := appMessage(t, err); got != msgPasswordMismatch {
		t.Errorf("message = %q, want %q", got, msgPasswordMismatch)
	}

	// Old password still works.
	if _, err := svc.SignIn(ctx, "a@x.com", "secret1"); err != nil {
		t.Errorf("old password should survive a failed reset: %v", err)
	}
}

func TestResetPassword_WeakPassword(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	res := registerVerified(t, svc, repo)

	id := &auth.Identity{UserID: res.User.ID, Email: res.User.Email}
	_, err := svc.ResetPassword(context.Background(), id, "12345", "12345")
	if got := appMessage(t, err); got != msgWeakPassword {
		t.Errorf("message = %q, want %q", got, msgWeakPassword)
	}
}

func TestSSOLogin(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	res := registerVerified(t, svc, repo)

	got, err := svc.SSOLogin(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("SSOLogin() error = %v", err)
	}
	if got.User.ID != res.User.ID {
		t.Errorf("User.ID = %q, want %q", got.User.ID, res.User.ID)
	}
	if got.Token == "" {
		t.Error("SSOLogin() returned no token")
	}
}

func TestSSOLogin_InvalidToken(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.SSOLogin(context.Background(), "not.a.token")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestSSOLogin_DeletedUser(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	res := registerVerified(t, svc, repo)
	ctx := context.Background()

	if err := svc.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := svc.SSOLogin(ctx, res.Token)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSSOLogin_Unverified(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err = svc.SSOLogin(ctx, res.Token)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := appMessage(t, err); got != msgNotVerified {
		t.Errorf("message = %q, want %q", got, msgNotVerified)
	}
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{
		ID:    42,
		Login: "octocat",
		Email: "octocat@github.com",
		Name:  "Octo Cat",
	}
	res, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if !res.User.Verification {
		t.Error("GitHub users must come back verified")
	}
	if res.User.FirstName != "Octo" || res.User.LastName != "Cat" {
		t.Errorf("name split = %q/%q, want Octo/Cat", res.User.FirstName, res.User.LastName)
	}
	if res.Token == "" {
		t.Error("LoginOrRegisterGitHub() returned no token")
	}

	// Second login keeps the same internal user.
	again, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}
	if again.User.ID != res.User.ID {
		t.Errorf("second login changed ID: %q != %q", again.User.ID, res.User.ID)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"Octo Cat", "Octo", "Cat"},
		{"Cher", "Cher", ""},
		{"Anna Maria Alberghetti", "Anna", "Maria Alberghetti"},
		{"  padded  ", "padded", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = %q/%q, want %q/%q", tt.in, first, last, tt.first, tt.last)
		}
	}
}
