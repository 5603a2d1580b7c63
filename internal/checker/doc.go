// Package checker implements the CyberAudit scan-and-score engine.
//
// Architecture overview:
//
//   - NormalizeDomain reduces user input to a bare hostname.
//   - Four probes (TLSProbe, PortProbe, EmailProbe, HeaderProbe) each perform a
//     single bounded network check and fold every failure into a fixed
//     "failure" value instead of returning an error.
//   - Score and RatingFor turn the four results into a 0-100 score and a label.
//   - Scanner.RunFullScan ties the pieces together and returns one immutable
//     ScanResult per call.
//   - Runner fans RunFullScan out over many domains with a worker pool and a
//     global rate limit, so cmd/ and the API treat single and batch scans the
//     same way.
//
// Probe failure causes are logged at debug level (dns, timeout, refused, tls,
// other) but never change the values handed to the scorer.
//
// Scoring:
//
//	TLS      25 if valid and > 15 days left, 15 if valid, else 0
//	Ports    25 if none open, else max(0, 25 - 10 per open port)
//	Email    25 if a DMARC record is published
//	Headers  25 if HSTS or X-Frame-Options is sent
//	         then -5 when secure without HSTS
package checker
