package analysis

// Verdict is the categorical label derived from a truth score band.
type Verdict string

const (
	VerdictLikelyAuthentic   Verdict = "LIKELY_AUTHENTIC"
	VerdictUncertain         Verdict = "UNCERTAIN"
	VerdictLikelyManipulated Verdict = "LIKELY_MANIPULATED"
)

// Verdict band thresholds. Both bounds are inclusive on the lower edge of the
// higher band: a score of exactly 70 is authentic, exactly 50 is uncertain.
const (
	AuthenticThreshold = 70.0
	UncertainThreshold = 50.0
)

// VerdictForScore maps a truth score to its verdict band.
func VerdictForScore(truthScore float64) Verdict {
	switch {
	case truthScore >= AuthenticThreshold:
		return VerdictLikelyAuthentic
	case truthScore >= UncertainThreshold:
		return VerdictUncertain
	default:
		return VerdictLikelyManipulated
	}
}

// ParseVerdict converts a stored string into a known Verdict.
func ParseVerdict(value string) (Verdict, bool) {
	switch Verdict(value) {
	case VerdictLikelyAuthentic, VerdictUncertain, VerdictLikelyManipulated:
		return Verdict(value), true
	default:
		return "", false
	}
}
