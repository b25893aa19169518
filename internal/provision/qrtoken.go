package provision

import "strings"

var tokenSanitizer = strings.NewReplacer("@", "_", ".", "_")

// QRToken derives the QR payload for a new participant from its normalized
// email and account id. The account id is truncated to 8 characters; the
// resulting collision risk is accepted for an operator-curated roster.
func QRToken(email, accountID string) string {
	suffix := accountID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "QR_" + tokenSanitizer.Replace(email) + "_" + suffix
}
