package match

import "strings"

// fillerPhrases are conversational politeness markers stripped before any
// similarity comparison. Longer phrases come first so "i would like to"
// goes before "i would like". The list covers the languages the bot is
// deployed in; matching is done on the lowercased input.
var fillerPhrases = []string{
	"i would like to",
	"i would like",
	"i want to",
	"i need to",
	"could you please",
	"could you",
	"can you please",
	"can you",
	"please",
	"kindly",
	"будь ласка",
	"я хочу",
	"я хотів би",
	"я хотіла б",
	"прошу",
	"por favor",
	"me gustaría",
	"quiero",
	"bitte",
	"ich möchte",
}

// Normalize lowercases the input, strips filler phrases and collapses the
// remaining whitespace. It runs identically for every matching strategy.
// Phrases are matched on whole-word boundaries only, so fillers embedded
// inside ordinary words ("pleased", "bitterly") are left alone.
func Normalize(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	for _, phrase := range fillerPhrases {
		tokens = stripPhrase(tokens, strings.Fields(phrase))
	}
	return strings.Join(tokens, " ")
}

// stripPhrase removes every occurrence of the consecutive token sequence.
func stripPhrase(tokens, phrase []string) []string {
	if len(phrase) == 0 || len(tokens) < len(phrase) {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if phraseAt(tokens, phrase, i) {
			i += len(phrase)
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func phraseAt(tokens, phrase []string, at int) bool {
	if at+len(phrase) > len(tokens) {
		return false
	}
	for j, word := range phrase {
		if tokens[at+j] != word {
			return false
		}
	}
	return true
}
