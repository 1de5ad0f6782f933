package domaincheck

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
)

const defaultTimeout = 3 * time.Second

// Resolver is the subset of *net.Resolver the checker needs.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Checker decides whether an email's domain can plausibly receive mail: it
// needs MX records, or failing that any A/AAAA record.
type Checker struct {
	Resolver Resolver
	Timeout  time.Duration
}

func New(timeout time.Duration) *Checker {
	return &Checker{Resolver: net.DefaultResolver, Timeout: timeout}
}

func (c *Checker) CanReceiveMail(ctx context.Context, email string) bool {
	domain := Domain(email)
	if domain == "" {
		return false
	}
	l := logging.FromContext(ctx).With("svc", "domaincheck", "domain", domain)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	mxCtx, cancel := context.WithTimeout(ctx, timeout)
	mx, err := c.Resolver.LookupMX(mxCtx, domain)
	cancel()
	if err == nil && len(mx) > 0 {
		if nullMX(mx) {
			l.Info("domain_rejected", "reason", "null mx")
			return false
		}
		return true
	}
	if err != nil {
		l.Debug("mx_lookup_failed", "error", err)
	}

	hostCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	addrs, err := c.Resolver.LookupHost(hostCtx, domain)
	if err != nil || len(addrs) == 0 {
		l.Info("domain_rejected", "reason", "no mx or address records", "error", err)
		return false
	}
	return true
}

// nullMX reports a domain that publishes "MX 0 ." to say it takes no mail
// (RFC 7505). Its address records must not be used as a fallback.
func nullMX(mx []*net.MX) bool {
	for _, r := range mx {
		if r.Host != "." && r.Host != "" {
			return false
		}
	}
	return true
}

func Domain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
