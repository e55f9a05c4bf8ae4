package logging

import (
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"refreshtoken":  {},
	"refresh_token": {},
	"authorization": {},
	"jwt_secret":    {},
}

// RedactAttr is a slog ReplaceAttr hook hiding credentials, whatever group
// they are logged under.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}
