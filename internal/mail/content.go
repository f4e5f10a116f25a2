package mail

import (
	"fmt"
	"html"
)

// VerificationBody builds the HTML body of the account-verification
// email. verificationURL already carries the signed token.
func VerificationBody(verificationURL string) string {
	u := html.EscapeString(verificationURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome to ChatConnect!</h2>
  <p>Thanks for signing up. Please confirm that you own this email
  address by clicking the button below.</p>
  <p>
    <a href="%s" style="display:inline-block;padding:10px 20px;background:#2d7ff9;color:#fff;text-decoration:none;border-radius:4px;">
      Verify my account
    </a>
  </p>
  <p>If the button does not work, copy this link into your browser:</p>
  <p><a href="%s">%s</a></p>
  <p>If you did not create an account, you can ignore this email.</p>
</body>
</html>`, u, u, u)
}

// ResetBody builds the HTML body of the password-reset email. resetURL
// points at the reset landing page with the signed token embedded.
func ResetBody(resetURL string) string {
	u := html.EscapeString(resetURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password reset requested</h2>
  <p>We received a request to reset the password on your ChatConnect
  account. Click the button below to choose a new password.</p>
  <p>
    <a href="%s" style="display:inline-block;padding:10px 20px;background:#2d7ff9;color:#fff;text-decoration:none;border-radius:4px;">
      Reset my password
    </a>
  </p>
  <p>If the button does not work, copy this link into your browser:</p>
  <p><a href="%s">%s</a></p>
  <p>If you did not request a reset, your password is unchanged and you
  can ignore this email.</p>
</body>
</html>`, u, u, u)
}
