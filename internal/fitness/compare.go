package fitness

// MeanAbsoluteDifference is the mean of |a[i]-b[i]| over every channel.
// Buffers of different length compare over the shorter one.
func MeanAbsoluteDifference(a, b []uint8) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum uint64
	for i := 0; i < n; i++ {
		if a[i] > b[i] {
			sum += uint64(a[i] - b[i])
		} else {
			sum += uint64(b[i] - a[i])
		}
	}
	return float64(sum) / float64(n)
}
