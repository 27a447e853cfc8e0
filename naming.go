package jsonbind

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NamingStrategy translates a Go property name into its wire name.
// Implementations must be pure and safe for concurrent use.
type NamingStrategy interface {
	TranslateName(raw string) string
}

// NamingFunc adapts a plain function to the NamingStrategy interface.
type NamingFunc func(raw string) string

// TranslateName implements NamingStrategy.
func (f NamingFunc) TranslateName(raw string) string {
	return f(raw)
}

// Naming strategy names accepted by NamingByName and Config.Naming.
const (
	NamingIdentity                 = "identity"
	NamingLowerCamelCase           = "lower-camel-case"
	NamingLowerCaseWithDashes      = "lower-case-with-dashes"
	NamingLowerCaseWithUnderscores = "lower-case-with-underscores"
	NamingUpperCamelCase           = "upper-camel-case"
	NamingUpperCamelCaseWithSpaces = "upper-camel-case-with-spaces"
	NamingCaseInsensitive          = "case-insensitive"
)

var namingStrategies = map[string]NamingStrategy{
	NamingIdentity:                 NamingFunc(identityName),
	NamingLowerCamelCase:           NamingFunc(lowerCamelCase),
	NamingLowerCaseWithDashes:      NamingFunc(func(s string) string { return lowerJoined(s, "-") }),
	NamingLowerCaseWithUnderscores: NamingFunc(func(s string) string { return lowerJoined(s, "_") }),
	NamingUpperCamelCase:           NamingFunc(upperFirst),
	NamingUpperCamelCaseWithSpaces: NamingFunc(upperCamelCaseWithSpaces),
	NamingCaseInsensitive:          NamingFunc(identityName),
}

// NamingByName returns a built-in naming strategy.
func NamingByName(name string) (NamingStrategy, bool) {
	s, ok := namingStrategies[name]
	return s, ok
}

// resolveName returns the explicit name declared on d, else the translated raw name.
func resolveName(d Decorated, raw string, naming NamingStrategy) string {
	if t, ok := d.Tag(TagProperty); ok && t.Value != "" {
		return t.Value
	}
	if naming == nil {
		return raw
	}
	return naming.TranslateName(raw)
}

func identityName(s string) string { return s }

func lowerJoined(s, sep string) string {
	tokens := tokenize(s)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return strings.Join(tokens, sep)
}

func lowerCamelCase(s string) string {
	tokens := tokenize(s)
	var b strings.Builder
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		if i == 0 {
			b.WriteString(lower)
			continue
		}
		b.WriteString(upperFirst(lower))
	}
	return b.String()
}

func upperCamelCaseWithSpaces(s string) string {
	tokens := tokenize(s)
	for i, tok := range tokens {
		tokens[i] = upperFirst(tok)
	}
	return strings.Join(tokens, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// tokenize splits an identifier on separators and case boundaries.
// Acronyms stay together: "URLPath" -> ["URL", "Path"], "userID" -> ["user", "ID"].
func tokenize(s string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if i > 0 && len(current) > 0 && startsToken(runes, i) {
			flush()
		}
		current = append(current, r)
	}
	flush()

	return tokens
}

// startsToken reports whether the rune at i begins a new CamelCase token.
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// End of an acronym: "XMLParser" splits before 'P'.
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
