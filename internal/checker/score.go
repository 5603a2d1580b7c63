package checker

import "github.com/khanhnv2901/cyberaudit/internal/shared/constants"

// Bucket weights. Each probe contributes at most bucketMax points.
const (
	bucketMax          = 25
	tlsSoonExpiryScore = 15
	pointsPerOpenPort  = 10
	xFrameOnlyPenalty  = 5
)

// Rating is the qualitative label attached to a score.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingAverage   Rating = "average"
	RatingCritical  Rating = "critical"
)

// Score combines the four probe results into the posture score.
// Buckets are summed first and the X-Frame-only penalty is applied afterwards;
// the result is not clamped.
func Score(tls TLSResult, ports PortScanResult, email EmailPolicyResult, headers HeaderResult) int {
	score := 0

	switch {
	case tls.Valid && tls.DaysRemaining > constants.TLSSoonExpiryDays:
		score += bucketMax
	case tls.Valid:
		score += tlsSoonExpiryScore
	}

	if ports.Count() == 0 {
		score += bucketMax
	} else {
		score += max(0, bucketMax-pointsPerOpenPort*ports.Count())
	}

	if email.DMARCPresent {
		score += bucketMax
	}

	if headers.Secure {
		score += bucketMax
	}
	if headers.Secure && !headers.HSTSPresent {
		score -= xFrameOnlyPenalty
	}

	return score
}

// RatingFor maps a score to its label.
func RatingFor(score int) Rating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 50:
		return RatingAverage
	default:
		return RatingCritical
	}
}
