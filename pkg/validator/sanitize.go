package validator

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// sqlInjectionPattern catches the common SQL metacharacter/keyword payloads;
// it is deliberately broad (false positives over false negatives for an
// input filter).
var sqlInjectionPattern = regexp.MustCompile(`(?i)('|--|;|/\*|\*/|\bunion\b|\bselect\b|\binsert\b|\bdrop\b|\bupdate\b|\bdelete\b|\bor\s+1\s*=\s*1\b)`)

// traversalPattern matches ".." optionally followed by a path separator,
// after percent-decoding.
var traversalPattern = regexp.MustCompile(`\.\.[/\\]|\.\.$`)

// DetectSQLInjection reports whether input contains characters or keywords
// commonly used in SQL injection payloads.
func DetectSQLInjection(input string) bool {
	return sqlInjectionPattern.MatchString(input)
}

// DetectPathTraversal reports whether input, after fully percent-decoding
// (including doubly/triply encoded payloads), contains a ".." path segment.
func DetectPathTraversal(input string) bool {
	decoded := fullyDecode(input)
	return traversalPattern.MatchString(decoded) || decoded == ".."
}

// SanitizePath percent-decodes input, strips ".." segments and backslashes,
// and returns a cleaned relative path with no leading slash.
func SanitizePath(input string) string {
	decoded := fullyDecode(input)
	decoded = strings.ReplaceAll(decoded, "\\", "/")

	segments := strings.Split(decoded, "/")
	clean := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		clean = append(clean, seg)
	}
	return strings.Join(clean, "/")
}

// fullyDecode repeatedly percent-decodes input until it stops changing or a
// decode fails, defeating double/triple URL-encoding evasion.
func fullyDecode(input string) string {
	cur := input
	for i := 0; i < 5; i++ {
		next, err := url.QueryUnescape(cur)
		if err != nil || next == cur {
			return cur
		}
		cur = next
	}
	return cur
}

// Sanitizer escapes untrusted strings before they are reflected back in a
// response (headers, echoed query params).
type Sanitizer struct{}

// NewSanitizer returns a ready-to-use Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize HTML-escapes s, neutralizing reflected script/markup injection.
func (s *Sanitizer) Sanitize(v string) string {
	return html.EscapeString(v)
}
