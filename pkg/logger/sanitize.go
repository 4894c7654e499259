package logger

import (
	"net/url"
	"strings"
)

// sensitiveQueryKeys are matched as substrings of lower-cased query keys
var sensitiveQueryKeys = []string{"password", "token", "secret", "code", "otp", "email", "auth", "csrf"}

// SanitizedEmail masks an address for logs: the first rune of the local part
// and the top-level domain survive, e.g. "u***@*******.com".
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	if dot := strings.LastIndexByte(domain, '.'); dot > 0 {
		labels := strings.Split(domain[:dot], ".")
		for i, label := range labels {
			labels[i] = strings.Repeat("*", len(label))
		}
		domain = strings.Join(labels, ".") + domain[dot:]
	}

	return local + "@" + domain
}

// SanitizeQueryString reports whether a raw query carries a parameter that
// must not reach the logs. Unparseable queries are treated as sensitive.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}
	for key := range values {
		key = strings.ToLower(key)
		for _, sensitive := range sensitiveQueryKeys {
			if strings.Contains(key, sensitive) {
				return true
			}
		}
	}
	return false
}
