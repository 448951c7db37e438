package session

// Tier is the celebration band for a completed session. Bands are fixed;
// lower bounds are inclusive, so exactly 90% lands in the top tier.
type Tier struct {
	Min     int // minimum whole percentage for the band
	Message string
	Quote   string
}

var tiers = []Tier{
	{
		Min:     90,
		Message: "Outstanding! You absolutely crushed it!",
		Quote:   `"The expert in anything was once a beginner." - Helen Hayes`,
	},
	{
		Min:     80,
		Message: "Excellent work! You really know your stuff!",
		Quote:   `"Success is the sum of small efforts, repeated day in and day out." - Robert Collier`,
	},
	{
		Min:     70,
		Message: "Great job! You have a solid understanding!",
		Quote:   `"The beautiful thing about learning is that no one can take it away from you." - B.B. King`,
	},
	{
		Min:     60,
		Message: "Good effort! Keep learning and improving!",
		Quote:   `"It does not matter how slowly you go as long as you do not stop." - Confucius`,
	},
	{
		Min:     0,
		Message: "Nice try! Every attempt is a step forward!",
		Quote:   `"Failure is simply the opportunity to begin again, this time more intelligently." - Henry Ford`,
	},
}

// TierFor resolves the celebration band for a score out of total.
func TierFor(score, total int) Tier {
	if total <= 0 {
		return tiers[len(tiers)-1]
	}
	percentage := 100 * float64(score) / float64(total)
	for _, t := range tiers {
		if percentage >= float64(t.Min) {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
