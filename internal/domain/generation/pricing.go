package generation

// MaxReferenceImages caps the image-to-video inputs per job
const MaxReferenceImages = 4

// allowedDurations are the clip lengths the provider accepts, seconds
var allowedDurations = map[int]bool{5: true, 10: true, 15: true, 30: true}

// ValidDuration reports whether the duration is in the allowed set
func ValidDuration(seconds int) bool {
	return allowedDurations[seconds]
}

// Price returns the credit cost of a job as a pure function of
// duration and reference image count: 2 credits per second plus
// 5 per reference image.
func Price(durationSeconds, imageCount int) int64 {
	return int64(durationSeconds)*2 + int64(imageCount)*5
}
