package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

const implicitTLSPort = 465

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPMailer delivers verification emails straight to an SMTP relay. Every
// send is bound to its context: the connection is closed when ctx ends.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string

	dial      dialFunc
	tlsConfig *tls.Config
	now       func() time.Time
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	var d net.Dialer
	return &SMTPMailer{
		Host:      host,
		Port:      port,
		Username:  username,
		Password:  password,
		dial:      d.DialContext,
		tlsConfig: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		now:       time.Now,
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := ComposeVerification(m.Username, VerificationEmail{To: to, Code: code}, m.now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if m.Port == implicitTLSPort {
		conn = tls.Client(conn, m.tlsConfig)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := m.deliver(c, to, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp send to %s: %w", to, ctxErr)
		}
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) deliver(c *smtp.Client, to string, raw []byte) error {
	if m.Port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(m.tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(sasl.NewPlainClient("", m.Username, m.Password)); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}
	if err := c.SendMail(m.Username, []string{to}, bytes.NewReader(raw)); err != nil {
		return err
	}
	return c.Quit()
}
