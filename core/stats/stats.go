package stats

// Percentage returns present/total*100. A subject without classes yet is at 100%.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(present) / float64(total) * 100
}

// overallPercentage is Percentage except that no classes at all reads as 0%.
func overallPercentage(present, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(present) / float64(total) * 100
}

// BunkAnalysis projects how many future classes may be missed, or must be attended, to meet a target.
type BunkAnalysis struct {
	TargetPercentage int `json:"target_percentage"`
	// ClassesToBunk is the largest k such that present/(total+k) >= target.
	ClassesToBunk int `json:"classes_to_bunk"`
	// ClassesToAttend is the smallest k such that (present+k)/(total+k) >= target.
	ClassesToAttend int `json:"classes_to_attend"`
	// Unlimited is set when the target is 0%: no number of absences can break it.
	Unlimited bool `json:"unlimited"`
	// Unreachable is set when the target is 100% and an absence exists: no number of classes can recover it.
	Unreachable bool `json:"unreachable"`
}

// OnTarget reports whether present/total is at or above the target.
func (ba BunkAnalysis) OnTarget() bool {
	return ba.ClassesToAttend == 0 && !ba.Unreachable
}

// Analyze computes the bunk/attend projection. Integer arithmetic keeps the closed forms exact:
//
//	bunk   = floor((100*present - target*total) / target)
//	attend = ceil((target*total - 100*present) / (100 - target))
func Analyze(target, total, present int) BunkAnalysis {
	ba := BunkAnalysis{TargetPercentage: target}
	if target <= 0 {
		ba.Unlimited = true
		return ba
	}

	surplus := 100*present - target*total
	if surplus >= 0 {
		ba.ClassesToBunk = surplus / target
		return ba
	}

	if target >= 100 {
		ba.Unreachable = true
		return ba
	}
	deficit := -surplus
	den := 100 - target
	ba.ClassesToAttend = (deficit + den - 1) / den
	return ba
}
