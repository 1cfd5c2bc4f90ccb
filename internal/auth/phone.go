package auth

import "strings"

const phonePrefix = "+234"

// NormalizePhone rewrites a locally formatted number ("08012345678") to its
// international form ("+2348012345678"). Numbers already carrying the prefix
// pass through unchanged. All uniqueness checks and lookups run on the
// normalized form, so both spellings address the same account.
func NormalizePhone(raw string) string {
	phone := strings.TrimSpace(raw)
	if strings.HasPrefix(phone, phonePrefix) {
		return phone
	}
	return phonePrefix + strings.TrimLeft(phone, "0")
}
