package cli

// Redact returns a display-safe form of a secret: a short prefix and suffix
// with the middle elided. Short secrets are fully masked.
func Redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
