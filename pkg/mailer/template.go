package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type otpEmailData struct {
	Brand     string
	Greeting  string
	Message   string
	Code      string
	ExpiresIn string
	Year      int
}

// RenderOTPEmail returns the subject and HTML body for a one-time code. New
// users get registration wording, known users get login wording.
func RenderOTPEmail(brand, code string, isNewUser bool, ttl time.Duration) (string, string, error) {
	subject := "Your Login OTP Code"
	data := otpEmailData{
		Brand:     brand,
		Greeting:  "Welcome back!",
		Message:   "Please use the following OTP to log in to your account:",
		Code:      code,
		ExpiresIn: humanizeMinutes(ttl),
		Year:      time.Now().Year(),
	}
	if isNewUser {
		subject = "Complete Your Registration - OTP Code"
		data.Greeting = "Welcome!"
		data.Message = "Thank you for registering with us. Please use the following OTP to complete your registration:"
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "otp.html", data); err != nil {
		return "", "", fmt.Errorf("render otp email: %w", err)
	}

	return subject, buf.String(), nil
}

func humanizeMinutes(d time.Duration) string {
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
