package mask

import "strings"

// maskChar is used for every hidden rune.
const maskChar = "*"

// Secret fully masks a credential value. The output length is fixed so logs
// leak neither the value nor its length. Empty input stays empty.
func Secret(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat(maskChar, 8)
}

// Username masks the local part of an email-style username, keeping only the
// first and last rune visible. Non-email usernames are masked the same way as
// a local part. A login like "john.doe@example.com" becomes
// "j******e@example.com".
func Username(s string) string {
	if s == "" {
		return ""
	}

	local := s
	domain := ""
	if at := strings.LastIndex(s, "@"); at >= 0 {
		local = s[:at]
		domain = s[at:]
	}

	return maskLocal(local) + domain
}

func maskLocal(local string) string {
	runes := []rune(local)
	if len(runes) <= 2 {
		return strings.Repeat(maskChar, len(runes))
	}
	return string(runes[0]) + strings.Repeat(maskChar, len(runes)-2) + string(runes[len(runes)-1])
}
