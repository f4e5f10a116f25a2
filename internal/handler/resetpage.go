package handler

import (
	"html/template"
	"log/slog"
	"net/http"
)

// resetPageTemplate is the password-reset landing page. The emailed
// reset link lands here; the page embeds the raw token and submits the
// new password to POST /v1/resetPassword with the token back in the
// query string. html/template escapes the token in both contexts.
var resetPageTemplate = template.Must(template.New("resetPassword").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Reset your password</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 420px; margin: 80px auto; color: #333; }
    label { display: block; margin-top: 16px; }
    input { width: 100%; padding: 8px; margin-top: 4px; box-sizing: border-box; }
    button { margin-top: 24px; padding: 10px 20px; background: #2d7ff9; color: #fff; border: none; border-radius: 4px; cursor: pointer; }
    #result { margin-top: 16px; }
  </style>
</head>
<body>
  <h2>Choose a new password</h2>
  <form id="reset-form">
    <label>New password
      <input type="password" name="password" required>
    </label>
    <label>Confirm new password
      <input type="password" name="confirmPassword" required>
    </label>
    <button type="submit">Reset password</button>
  </form>
  <p id="result"></p>
  <script>
    document.getElementById('reset-form').addEventListener('submit', async (e) => {
      e.preventDefault();
      const form = new FormData(e.target);
      const resp = await fetch('/v1/resetPassword?token=' + encodeURIComponent({{.Token}}), {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({
          password: form.get('password'),
          confirmPassword: form.get('confirmPassword')
        })
      });
      const body = await resp.json();
      document.getElementById('result').textContent =
        resp.ok ? body.message : body.error;
    });
  </script>
</body>
</html>`))

// ResetPageHandler renders the reset landing page. Pure templating — no
// persistence and no token validation; the subsequent POST validates.
type ResetPageHandler struct {
	logger *slog.Logger
}

// NewResetPageHandler creates a ResetPageHandler.
func NewResetPageHandler(logger *slog.Logger) *ResetPageHandler {
	return &ResetPageHandler{logger: logger}
}

// HandleResetPage serves the page.
//
// HTTP: GET /v1/resetPasswordHtmlPage?token=...
func (h *ResetPageHandler) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resetPageTemplate.Execute(w, struct{ Token string }{Token: token}); err != nil {
		h.logger.Error("rendering reset page failed", slog.String("error", err.Error()))
	}
}
