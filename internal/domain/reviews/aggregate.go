package reviews

// Average is the arithmetic mean of ratings rounded half-up to two decimals.
// An empty set averages to zero.
func Average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	n := int64(len(ratings))
	// round(sum*100/n) with ties away from zero; ratings are positive.
	hundredths := (sum*200 + n) / (2 * n)
	return float64(hundredths) / 100
}

// Ratings extracts the rating of every review.
func Ratings(items []*Review) []int {
	out := make([]int, 0, len(items))
	for _, r := range items {
		if r != nil {
			out = append(out, r.Rating)
		}
	}
	return out
}
