package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent lowercases an identifier and drops separators, so that
// "OrderID", "order_id" and "orderId" compare equal.
func NormalizeIdent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}

// TokenizeIdent splits a CamelCase or snake_case identifier into lowercase
// words: "getHTTPResponse" gives [get http response].
func TokenizeIdent(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}
	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// startsToken reports a lower-to-upper transition ("orderID" before I) or
// the last capital of an acronym ("XMLParser" before P).
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
