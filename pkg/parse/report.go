package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Report collects the non-fatal problems found during one parse. Malformed
// markup never aborts a parse; it is recorded here and rendered in place.
type Report struct {
	Warnings []string
	Logger   *slog.Logger
}

// AddWarning records and logs a warning.
func (r *Report) AddWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("markup warning", "warning", msg)
}

// URISchemes lists the schemes recognized in links and autolinks.
var URISchemes = []string{
	"apt", "ed2k", "file", "ftp", "gopher", "http", "https", "irc", "ircs",
	"mailto", "mumble", "news", "nntp", "notes", "rootz", "rtcp", "rtp",
	"rtsp", "ssh", "telnet", "webcal", "xmpp",
}

// URISchemePattern is an alternation of URISchemes for use in expressions.
var URISchemePattern = strings.Join(URISchemes, "|")

var schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)

// Scheme returns the lowercased URI scheme of target, or "".
func Scheme(target string) string {
	m := schemeRe.FindStringSubmatch(target)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// AllowedScheme reports whether target has no scheme or a known one.
func AllowedScheme(target string) bool {
	s := Scheme(target)
	if s == "" {
		return true
	}
	for _, known := range URISchemes {
		if s == known {
			return true
		}
	}
	return false
}
