package sanitize

import (
	"regexp"
	"strings"
)

// AllowedProtocols lists the schemes EscapeURL keeps.
var AllowedProtocols = []string{
	"http", "https", "ftp", "ftps", "mailto", "news", "irc", "gopher", "nntp",
	"feed", "telnet", "mms", "rtsp", "sms", "svn", "tel", "fax", "xmpp", "webcal", "urn",
}

var phpScriptPrefix = regexp.MustCompile(`(?i)^[a-z0-9-]+?\.php`)

// EscapeURL cleans a URL for storage. Characters outside the URL alphabet are
// dropped, spaces become %20, scheme-less hosts get an http:// prefix and
// values using a protocol outside AllowedProtocols collapse to "".
func EscapeURL(raw string) string {
	url := strings.TrimLeft(raw, " \t\n\r\x00\x0B")
	if url == "" {
		return ""
	}
	url = strings.ReplaceAll(url, " ", "%20")
	url = stripDisallowed(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(url), "mailto:") {
		url = deepReplace(url, "%0d", "%0a", "%0D", "%0A")
	}
	url = strings.ReplaceAll(url, ";//", "://")

	if !strings.Contains(url, ":") && !strings.ContainsRune("/#?", rune(url[0])) && !phpScriptPrefix.MatchString(url) {
		url = "http://" + url
	}
	if url[0] == '/' {
		return url
	}
	if !allowedProtocol(url) {
		return ""
	}
	return url
}

func stripDisallowed(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if urlByteAllowed(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func urlByteAllowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return true
	}
	return strings.IndexByte("-~+_.?#=!&;,/:%@$|*'()[]", c) >= 0
}

// deepReplace removes every needle until none remain, so nested sequences
// such as "%0%0dd" cannot reassemble.
func deepReplace(s string, needles ...string) string {
	for {
		changed := false
		for _, needle := range needles {
			if strings.Contains(s, needle) {
				s = strings.ReplaceAll(s, needle, "")
				changed = true
			}
		}
		if !changed {
			return s
		}
	}
}

func allowedProtocol(url string) bool {
	colon := strings.IndexByte(url, ':')
	if colon < 0 {
		return true
	}
	scheme := url[:colon]
	if strings.ContainsAny(scheme, "/?#") {
		return true
	}
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	for _, allowed := range AllowedProtocols {
		if scheme == allowed {
			return true
		}
	}
	return false
}
