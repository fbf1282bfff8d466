package model

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// DecodeLossy decodes b as UTF-8, replacing invalid sequences with U+FFFD
func DecodeLossy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(decoded)
}

// classifyContentType reports whether a single content type value looks like JSON or XML.
// Zero or several values are treated as unclassified.
func classifyContentType(values []string) (isJSON, isXML bool) {
	if len(values) != 1 {
		return false, false
	}
	ct := strings.ToLower(values[0])
	isJSON = strings.Contains(ct, "/json") || strings.Contains(ct, "+json")
	isXML = strings.Contains(ct, "/xml") || strings.Contains(ct, "+xml")
	return isJSON, isXML
}
