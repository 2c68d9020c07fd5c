package chat

import "strings"

// Keyword sets for the casual pre-filter. Matching is substring based after
// lowercasing and Turkish diacritic folding; this is a cheap gate in front of
// retrieval, not an intent classifier.
var (
	greetingKeywords = []string{
		"merhaba", "selam", "gunaydin", "iyi gunler", "iyi aksamlar", "hey", "hello", "hi",
	}
	howAreYouKeywords = []string{
		"nasilsin", "naber", "ne haber", "nasil gidiyor", "iyi misin",
	}
	thanksKeywords = []string{
		"tesekkur", "sagol", "sag ol", "eyvallah", "thanks", "thank you",
	}
	farewellKeywords = []string{
		"gorusuruz", "hosca kal", "hoscakal", "iyi geceler", "bye",
	}
)

var diacriticFolder = strings.NewReplacer(
	"ı", "i", "İ", "i", "I", "i",
	"ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u",
	"ş", "s", "Ş", "s",
	"ö", "o", "Ö", "o",
	"ç", "c", "Ç", "c",
)

// foldTurkish lowercases text and strips Turkish diacritics so keyword
// comparisons are case and accent insensitive.
func foldTurkish(s string) string {
	return strings.ToLower(diacriticFolder.Replace(s))
}

// IsCasual reports whether the text is a conversational utterance (greeting,
// small talk, thanks) that needs no knowledge retrieval.
func IsCasual(text string) bool {
	folded := foldTurkish(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, set := range [][]string{greetingKeywords, howAreYouKeywords, thanksKeywords, farewellKeywords} {
		for _, kw := range set {
			if matchKeyword(folded, words, kw) {
				return true
			}
		}
	}
	return false
}

// matchKeyword uses substring matching for phrases and longer keywords;
// short keywords ("hi", "hey", "bye") must match a whole word to avoid
// firing inside unrelated Turkish words.
func matchKeyword(folded string, words []string, kw string) bool {
	if len(kw) > 3 || strings.ContainsRune(kw, ' ') {
		return strings.Contains(folded, kw)
	}
	for _, w := range words {
		if w == kw {
			return true
		}
	}
	return false
}
