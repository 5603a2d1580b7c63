package checker

import (
	"strings"
	"testing"
)

func TestFindings(t *testing.T) {
	result := ScanResult{
		TLS:     TLSResult{Valid: true, DaysRemaining: 8, IssuerCommonName: "R3"},
		Ports:   PortScanResult{Open: []int{22, 3389}},
		Email:   EmailPolicyResult{DMARCPresent: true},
		Headers: HeaderResult{Secure: true, Missing: []string{MissingHSTS}},
	}

	findings := Findings(result)
	if len(findings) != 4 {
		t.Fatalf("got %d findings, want 4", len(findings))
	}

	tests := []struct {
		idx        int
		check      string
		status     FindingStatus
		detail     string
		recommends bool
	}{
		{0, "SSL/TLS certificate", StatusWarning, "expires in 8 days", true},
		{1, "Exposed services", StatusWarning, "22/ssh, 3389/rdp", true},
		{2, "Email spoofing (DMARC)", StatusOK, "DMARC policy published", false},
		{3, "HTTP security headers", StatusOK, "Missing: HSTS", true},
	}

	for _, tt := range tests {
		f := findings[tt.idx]
		if f.Check != tt.check {
			t.Errorf("findings[%d].Check = %q, want %q", tt.idx, f.Check, tt.check)
		}
		if f.Status != tt.status {
			t.Errorf("%s: Status = %s, want %s", f.Check, f.Status, tt.status)
		}
		if !strings.Contains(f.Detail, tt.detail) {
			t.Errorf("%s: Detail = %q, want it to contain %q", f.Check, f.Detail, tt.detail)
		}
		if (f.Recommendation != "") != tt.recommends {
			t.Errorf("%s: Recommendation = %q", f.Check, f.Recommendation)
		}
	}
}

func TestFindings_Unreachable(t *testing.T) {
	findings := Findings(ScanResult{
		TLS:     tlsFailure(),
		Ports:   PortScanResult{Open: []int{}},
		Headers: headersUnreachable(),
	})

	if findings[0].Status != StatusWarning || findings[0].Detail != "Certificate invalid or unreachable" {
		t.Errorf("tls finding = %+v", findings[0])
	}
	if findings[1].Status != StatusOK {
		t.Errorf("ports finding = %+v", findings[1])
	}
	if findings[3].Detail != "Site unreachable over HTTPS" {
		t.Errorf("headers finding = %+v", findings[3])
	}
}

func TestFindings_AllClear(t *testing.T) {
	findings := Findings(ScanResult{
		TLS:     TLSResult{Valid: true, DaysRemaining: 200, IssuerCommonName: "R3"},
		Ports:   PortScanResult{Open: []int{}},
		Email:   EmailPolicyResult{DMARCPresent: true},
		Headers: HeaderResult{Secure: true, HSTSPresent: true, Missing: []string{}},
	})

	for _, f := range findings {
		if f.Status != StatusOK || f.Recommendation != "" {
			t.Errorf("%s = %+v, want OK without recommendation", f.Check, f)
		}
	}
}
