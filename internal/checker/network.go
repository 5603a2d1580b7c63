package checker

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"go.uber.org/zap"
)

// IPResolver resolves a host name to addresses. *net.Resolver satisfies it.
type IPResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// PortProbe checks whether any critical TCP port accepts connections.
type PortProbe struct {
	Timeout  time.Duration // per port
	Resolver IPResolver    // defaults to net.DefaultResolver
	Logger   *zap.Logger

	ports []int // package tests only; nil means CriticalPorts
}

// Probe resolves the host once and then connects to each port in order.
// A host that does not resolve yields an empty result, the same as a host with
// every port closed.
func (p *PortProbe) Probe(ctx context.Context, host string) PortScanResult {
	result := PortScanResult{Open: []int{}}

	ip, err := p.resolve(ctx, host)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Debug("port probe resolution failed",
				zap.String("probe", "ports"),
				zap.String("host", host),
				zap.String("kind", classifyFailure(err)),
				zap.Error(err),
			)
		}
		return result
	}

	ports := p.probePorts()
	seen := make(map[int]struct{}, len(ports))
	for _, port := range ports {
		if _, dup := seen[port]; dup {
			continue
		}
		seen[port] = struct{}{}

		if p.checkPort(ctx, ip, port) {
			result.Open = append(result.Open, port)
		}
	}

	return result
}

func (p *PortProbe) probePorts() []int {
	if len(p.ports) == 0 {
		return CriticalPorts
	}
	return p.ports
}

func (p *PortProbe) resolve(ctx context.Context, host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("empty host")
	}

	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", host)
	}

	// Prefer IPv4, like a plain gethostbyname lookup.
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}

// checkPort reports whether a TCP connect to ip:port succeeds within the timeout.
func (p *PortProbe) checkPort(ctx context.Context, ip string, port int) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = constants.PortProbeTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// getServiceName returns the common service name for a critical port.
func getServiceName(port int) string {
	services := map[int]string{
		21:   "ftp",
		22:   "ssh",
		23:   "telnet",
		3389: "rdp",
		8080: "http-alt",
	}

	if service, ok := services[port]; ok {
		return service
	}
	return "unknown"
}

// DescribePorts renders open ports as "22/ssh, 3389/rdp" for reports.
func DescribePorts(p PortScanResult) string {
	if p.Count() == 0 {
		return "none"
	}
	parts := make([]string, 0, p.Count())
	for _, port := range p.Open {
		parts = append(parts, fmt.Sprintf("%d/%s", port, getServiceName(port)))
	}
	return strings.Join(parts, ", ")
}
