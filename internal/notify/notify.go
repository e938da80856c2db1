// Package notify dispatches one-time codes and status notifications
// through external email and SMS providers. Every send is best-effort:
// callers fire these from goroutines and a failed send never fails the
// operation that triggered it.
package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/awmbw/live-mart/pkg/logkey"
)

// Conf holds the provider settings, all read from the environment. Missing
// credentials degrade to log-only sends for development.
type Conf struct {
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string

	twilioSID   string
	twilioToken string
	twilioFrom  string

	httpClient *http.Client
}

func NewConf() *Conf {
	port := os.Getenv("EMAIL_PORT")
	if port == "" {
		port = "587"
	}
	return &Conf{
		smtpHost:    os.Getenv("EMAIL_HOST"),
		smtpPort:    port,
		smtpUser:    os.Getenv("EMAIL_USER"),
		smtpPass:    os.Getenv("EMAIL_PASS"),
		twilioSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		twilioToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		twilioFrom:  os.Getenv("TWILIO_PHONE_NUMBER"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendEmail delivers a plain-text mail with a "Live MART - " subject prefix.
func (c *Conf) SendEmail(to, subject, body string) error {
	if c.smtpHost == "" || c.smtpUser == "" {
		slog.Info("email transport not configured, skipping send",
			slog.String(logkey.Email, to), slog.String("Subject", subject))
		return nil
	}

	message := []byte("To: " + to + "\r\n" +
		"Subject: Live MART - " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", c.smtpUser, c.smtpPass, c.smtpHost)
	if err := smtp.SendMail(c.smtpHost+":"+c.smtpPort, auth, c.smtpUser, []string{to}, message); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

// SendOTPEmail mails a verification code.
func (c *Conf) SendOTPEmail(to, code string) error {
	body := fmt.Sprintf("Your OTP for Live MART registration is: %s\nThis OTP will expire in 10 minutes.\nIf you didn't request this, please ignore this email.", code)
	return c.SendEmail(to, "OTP Verification", body)
}

// SendOTPSMS texts a verification code through Twilio. Unconfigured Twilio
// logs the code instead, matching local development behavior.
func (c *Conf) SendOTPSMS(phone, code string) error {
	if c.twilioSID == "" || c.twilioToken == "" {
		slog.Info("twilio not configured, skipping SMS", slog.String("OTP", code))
		return nil
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.twilioSID)
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.twilioFrom)
	form.Set("Body", fmt.Sprintf("Your Live MART OTP is: %s. Valid for 10 minutes.", code))

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building twilio request: %w", err)
	}
	req.SetBasicAuth(c.twilioSID, c.twilioToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned %s", resp.Status)
	}
	return nil
}

// NotifyAsync fires an email in the background, logging failures.
func (c *Conf) NotifyAsync(to, subject, body string) {
	go func() {
		if err := c.SendEmail(to, subject, body); err != nil {
			slog.Error("notification send failed",
				slog.String(logkey.Email, to), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}
