package notify

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

const verificationSubject = "Skate Email verification"

const verificationBody = `<html>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
<div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 10px; padding: 20px;">
<h1 style="color: #333333; text-align: center;">Verification Email</h1>
<p style="color: #666666;">Thank you for registering. Please use the following verification code to complete your registration:</p>
<div style="background-color: #f2f2f2; padding: 10px; border-radius: 5px; text-align: center; font-size: 20px;">
%s
</div>
</div>
</body>
</html>
`

// VerificationEmail is what travels over the queue and what the mailer renders.
type VerificationEmail struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

// ComposeVerification renders a complete RFC 5322 message.
func ComposeVerification(from string, msg VerificationEmail, now time.Time) ([]byte, error) {
	var h gomail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*gomail.Address{{Address: from}})
	h.SetAddressList("To", []*gomail.Address{{Address: msg.To}})
	h.SetSubject(verificationSubject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}
	if _, err := io.WriteString(w, fmt.Sprintf(verificationBody, html.EscapeString(msg.Code))); err != nil {
		return nil, fmt.Errorf("write mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close mail writer: %w", err)
	}
	return buf.Bytes(), nil
}
