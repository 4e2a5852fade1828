package mail

import (
	"fmt"
	"net/url"
	"time"
)

func ResetPassword(frontendURL, name, email, token string, expiry time.Duration) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", frontendURL, url.QueryEscape(token), url.QueryEscape(email))
	return Message{
		To:      email,
		Subject: "Reset Password Notification",
		Body: fmt.Sprintf("Hello %s,\n\nYou are receiving this email because we received a password reset request for your account.\n\n%s\n\nThis password reset link will expire in %d minutes.\n\nIf you did not request a password reset, no further action is required.\n",
			name, link, int(expiry.Minutes())),
	}
}

func VerifyEmail(frontendURL, name, email string, userID uint, hash string) Message {
	link := fmt.Sprintf("%s/verify-email/%d/%s", frontendURL, userID, hash)
	return Message{
		To:      email,
		Subject: "Verify Email Address",
		Body: fmt.Sprintf("Hello %s,\n\nPlease open the link below to verify your email address.\n\n%s\n\nIf you did not create an account, no further action is required.\n",
			name, link),
	}
}
