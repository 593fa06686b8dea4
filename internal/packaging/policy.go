// SPDX-License-Identifier: MPL-2.0

package packaging

// buildRange is a half-open-ended range of WDK build numbers. A Max of
// zero means the range has no upper bound.
type buildRange struct {
	Min int
	Max int
}

func (r buildRange) contains(build int) bool {
	if build < r.Min {
		return false
	}
	return r.Max == 0 || build <= r.Max
}

// sampleVerificationBroken lists the WDK builds whose descriptor
// verification tool rejects sample-class drivers outright instead of
// honoring the sample flag. Verification is skipped entirely for
// sample-class packages on these builds.
var sampleVerificationBroken = []buildRange{
	{Min: 25798},
}

// skipSampleVerification reports whether descriptor verification must be
// skipped for a sample-class driver on the given WDK build.
func skipSampleVerification(build int) bool {
	for _, r := range sampleVerificationBroken {
		if r.contains(build) {
			return true
		}
	}
	return false
}
