package jsonld

import "strings"

// JSON-LD keywords understood by the expansion core.
const (
	KeywordContext   = "@context"
	KeywordID        = "@id"
	KeywordType      = "@type"
	KeywordValue     = "@value"
	KeywordLanguage  = "@language"
	KeywordList      = "@list"
	KeywordSet       = "@set"
	KeywordGraph     = "@graph"
	KeywordReverse   = "@reverse"
	KeywordIndex     = "@index"
	KeywordBase      = "@base"
	KeywordVocab     = "@vocab"
	KeywordVersion   = "@version"
	KeywordContainer = "@container"
	KeywordNone      = "@none"
	KeywordJSON      = "@json"
	KeywordDirection = "@direction"
	KeywordNest      = "@nest"
	KeywordPrefix    = "@prefix"
	KeywordProtected = "@protected"
	KeywordImport    = "@import"
	KeywordPropagate = "@propagate"
)

var keywords = map[string]struct{}{
	KeywordContext: {}, KeywordID: {}, KeywordType: {}, KeywordValue: {},
	KeywordLanguage: {}, KeywordList: {}, KeywordSet: {}, KeywordGraph: {},
	KeywordReverse: {}, KeywordIndex: {}, KeywordBase: {}, KeywordVocab: {},
	KeywordVersion: {}, KeywordContainer: {}, KeywordNone: {}, KeywordJSON: {},
	KeywordDirection: {}, KeywordNest: {}, KeywordPrefix: {}, KeywordProtected: {},
	KeywordImport: {}, KeywordPropagate: {},
	"@included": {},
}

// IsKeyword reports whether s is a JSON-LD keyword.
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// LooksLikeKeyword reports whether s has the form of a keyword ("@" followed
// by letters only). Such strings are reserved and ignored when they are not
// actual keywords.
func LooksLikeKeyword(s string) bool {
	if len(s) < 2 || !strings.HasPrefix(s, "@") {
		return false
	}
	for _, r := range s[1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
