package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

const (
	dmarcLabel  = "_dmarc."
	dmarcMarker = "v=DMARC1"

	defaultResolvConf = "/etc/resolv.conf"
)

// EmailProbe looks up the DMARC policy of a domain.
type EmailProbe struct {
	Timeout     time.Duration
	Nameservers []string // host or host:port; empty reads ResolvConf
	ResolvConf  string   // defaults to /etc/resolv.conf
	Logger      *zap.Logger
}

// Probe issues one TXT query for _dmarc.<host> and inspects only the first TXT
// record of the answer. Any lookup error means no policy.
func (p *EmailProbe) Probe(ctx context.Context, host string) EmailPolicyResult {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = constants.DNSProbeTimeout
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := dmarcLabel + host

	var (
		record string
		err    error
	)
	if servers := p.servers(); len(servers) > 0 {
		record, err = firstTXT(lookupCtx, name, servers, timeout)
	} else {
		record, err = firstTXTSystem(lookupCtx, name)
	}
	if err != nil {
		if p.Logger != nil {
			p.Logger.Debug("dmarc lookup failed",
				zap.String("probe", "email"),
				zap.String("host", host),
				zap.String("kind", classifyFailure(err)),
				zap.Error(err),
			)
		}
		return EmailPolicyResult{DMARCPresent: false}
	}

	return EmailPolicyResult{DMARCPresent: strings.Contains(record, dmarcMarker)}
}

// servers returns the nameservers to query as host:port pairs.
func (p *EmailProbe) servers() []string {
	if len(p.Nameservers) > 0 {
		out := make([]string, 0, len(p.Nameservers))
		for _, ns := range p.Nameservers {
			ns = strings.TrimSpace(ns)
			if ns == "" {
				continue
			}
			if _, _, err := net.SplitHostPort(ns); err != nil {
				ns = net.JoinHostPort(ns, "53")
			}
			out = append(out, ns)
		}
		return out
	}

	path := p.ResolvConf
	if path == "" {
		path = defaultResolvConf
	}
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil || len(cfg.Servers) == 0 {
		return nil
	}
	out := make([]string, 0, len(cfg.Servers))
	for _, server := range cfg.Servers {
		out = append(out, net.JoinHostPort(server, cfg.Port))
	}
	return out
}

// firstTXT queries the servers in order, moving on only when a server cannot be
// reached. A truncated UDP answer is retried once over TCP.
func firstTXT(ctx context.Context, name string, servers []string, timeout time.Duration) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: timeout}

	var (
		resp    *dns.Msg
		lastErr error
	)
	for _, server := range servers {
		r, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if r.Truncated {
			tcp := &dns.Client{Net: "tcp", Timeout: timeout}
			if r2, _, err := tcp.ExchangeContext(ctx, msg, server); err == nil {
				r = r2
			}
		}
		resp = r
		break
	}
	if resp == nil {
		if lastErr == nil {
			lastErr = errors.New("no nameserver answered")
		}
		return "", lastErr
	}

	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%s: rcode %s", name, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			return strings.Join(txt.Txt, ""), nil
		}
	}
	return "", fmt.Errorf("%s: no TXT records", name)
}

// firstTXTSystem falls back to the platform resolver when no nameserver list is known.
func firstTXTSystem(ctx context.Context, name string) (string, error) {
	records, err := net.DefaultResolver.LookupTXT(ctx, name)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%s: no TXT records", name)
	}
	return records[0], nil
}
