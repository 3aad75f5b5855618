// Package naming converts identifiers between the casing conventions used by
// generated code. Every conversion normalizes through snake_case first, so the
// transforms are total and idempotent regardless of the input convention.
package naming

import (
	"strings"
	"unicode"
)

// Convention is a deterministic string-casing rule.
type Convention string

const (
	SnakeCase      Convention = "snake_case"      // user_profile
	CamelCase      Convention = "camelCase"       // userProfile
	PascalCase     Convention = "PascalCase"      // UserProfile
	KebabCase      Convention = "kebab-case"      // user-profile
	ScreamingSnake Convention = "SCREAMING_SNAKE" // USER_PROFILE
	LowerCase      Convention = "lowercase"       // userprofile
)

// Conventions lists every supported convention in a stable order.
func Conventions() []Convention {
	return []Convention{SnakeCase, CamelCase, PascalCase, KebabCase, ScreamingSnake, LowerCase}
}

// Parse returns the Convention matching s, or false when s is not recognized.
func Parse(s string) (Convention, bool) {
	for _, c := range Conventions() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Apply converts s to the given convention. Unknown conventions return s
// unchanged so callers never fail on configuration typos.
func Apply(s string, c Convention) string {
	switch c {
	case SnakeCase:
		return ToSnakeCase(s)
	case CamelCase:
		return ToCamelCase(s)
	case PascalCase:
		return ToPascalCase(s)
	case KebabCase:
		return ToKebabCase(s)
	case ScreamingSnake:
		return ToScreamingSnake(s)
	case LowerCase:
		return ToLowerCase(s)
	}
	return s
}

// ToSnakeCase converts any supported input style to snake_case.
// Handles acronyms properly (HTTPRequest -> http_request), and normalizes
// kebab-case, spaces, and repeated separators. Output is a fixed point:
// every uppercase or digit-to-letter boundary it splits on is already an
// underscore in its own output, so converting a second time changes nothing.
func ToSnakeCase(s string) string {
	var result strings.Builder
	result.Grow(len(s) + 4)
	runes := []rune(s)

	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '_':
			result.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				// Add underscore before uppercase letter if:
				// 1. Previous char is lowercase or a digit
				// 2. Next char is lowercase (for acronyms like HTTPRequest -> http_request)
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune('_')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(prev) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		default:
			// Split digit-to-letter boundaries regardless of case, matching
			// the uppercase rule above. Letter-to-digit stays joined so v2
			// style suffixes survive as one token.
			if i > 0 && unicode.IsLetter(r) && unicode.IsDigit(runes[i-1]) {
				result.WriteRune('_')
			}
			result.WriteRune(r)
		}
	}

	return strings.Trim(collapseUnderscores(result.String()), "_")
}

// ToCamelCase converts to camelCase. Input that is already a bare
// camelCase identifier is returned unchanged.
func ToCamelCase(s string) string {
	if isJoined(s, unicode.IsLower) {
		return s
	}
	return joinParts(ToSnakeCase(s), true)
}

// ToPascalCase converts to PascalCase. Input that is already a bare
// PascalCase identifier is returned unchanged, preserving acronym runs.
func ToPascalCase(s string) string {
	if isJoined(s, unicode.IsUpper) {
		return s
	}
	return joinParts(ToSnakeCase(s), false)
}

// joinParts concatenates the tokens of a snake_case string, capitalizing
// each one (the first is lowered instead when lowerFirst is set). A token
// starting with a digit keeps its leading underscore so the snake form can
// be recovered from the joined one.
func joinParts(snake string, lowerFirst bool) string {
	var result strings.Builder
	for _, p := range strings.Split(snake, "_") {
		if p == "" {
			continue
		}
		switch {
		case result.Len() == 0 && lowerFirst:
			result.WriteString(strings.ToLower(p))
		case result.Len() > 0 && unicode.IsDigit([]rune(p)[0]):
			result.WriteRune('_')
			result.WriteString(p)
		default:
			result.WriteString(capitalize(p))
		}
	}
	return result.String()
}

// isJoined reports whether s is a separator-free identifier whose first rune
// satisfies first and whose remainder is letters and digits only.
func isJoined(s string, first func(rune) bool) bool {
	for i, r := range s {
		if i == 0 {
			if !first(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// ToKebabCase converts to kebab-case.
func ToKebabCase(s string) string {
	return strings.ReplaceAll(ToSnakeCase(s), "_", "-")
}

// ToScreamingSnake converts to SCREAMING_SNAKE_CASE.
func ToScreamingSnake(s string) string {
	return strings.ToUpper(ToSnakeCase(s))
}

// ToLowerCase converts to lowercase with no separators.
func ToLowerCase(s string) string {
	return strings.ReplaceAll(ToSnakeCase(s), "_", "")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
