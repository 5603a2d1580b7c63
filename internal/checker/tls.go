package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"go.uber.org/zap"
)

// TLSProbe reads the certificate served on the HTTPS port of a host.
type TLSProbe struct {
	Timeout time.Duration
	Port    int            // defaults to 443
	RootCAs *x509.CertPool // nil uses the system roots
	Now     func() time.Time
	Logger  *zap.Logger
}

// Probe performs a single verified handshake and reports the leaf certificate's
// expiry and issuer. Every failure collapses into the same invalid result.
func (p *TLSProbe) Probe(ctx context.Context, host string) TLSResult {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = constants.TLSProbeTimeout
	}
	port := p.Port
	if port == 0 {
		port = 443
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    p.RootCAs,
			MinVersion: tls.VersionTLS10,
		},
	}

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		p.logFailure(host, err)
		return tlsFailure()
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		p.logFailure(host, errors.New("unexpected connection type"))
		return tlsFailure()
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		p.logFailure(host, errors.New("no peer certificates"))
		return tlsFailure()
	}

	leaf := certs[0]
	issuer := leaf.Issuer.CommonName
	if issuer == "" {
		issuer = "Unknown"
	}

	return TLSResult{
		Valid:            true,
		DaysRemaining:    daysUntil(leaf.NotAfter, p.now()),
		IssuerCommonName: issuer,
	}
}

func (p *TLSProbe) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *TLSProbe) logFailure(host string, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Debug("tls probe failed",
		zap.String("probe", "tls"),
		zap.String("host", host),
		zap.String("kind", classifyFailure(err)),
		zap.Error(err),
	)
}

// daysUntil returns whole days from now to expiry, floored. It is negative once
// the certificate has expired.
func daysUntil(expiry, now time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}
