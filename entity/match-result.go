package entity

// MatchMethod identifies which strategy produced a match.
type MatchMethod string

const (
	MatchLexical  MatchMethod = "lexical"
	MatchSemantic MatchMethod = "semantic"
	MatchBlended  MatchMethod = "blended"
)

// MatchResult is the outcome of resolving free text against the catalog.
// An empty CommandKey with score 0 means "no match".
type MatchResult struct {
	CommandKey string      `json:"command_key,omitempty"`
	Score      float64     `json:"score"`
	Method     MatchMethod `json:"method"`
}

// Matched reports whether a command cleared the acceptance floor.
func (r MatchResult) Matched() bool {
	return r.CommandKey != ""
}
