package scoring

// Config holds every constant the scorer uses. It is an explicit
// immutable value passed in at construction so tests can override
// vocabularies without touching globals.
type Config struct {
	// Keywords is the domain vocabulary checked for coverage
	// (case-insensitive substring match, multi-word phrases allowed).
	Keywords []string

	// CoverageCap bounds the coverage sub-score: each keyword hit is
	// one point, capped here.
	CoverageCap int

	// HedgingTerms flag uncertain language. Matched whole-word,
	// case-insensitive; multi-word phrases match as phrases.
	HedgingTerms []string

	// MinWords is the word count below which a candidate is flagged
	// too short.
	MinWords int

	// SentenceTargetMin/Max bound the ideal average sentence length in
	// words. Inside the range clarity scores ClarityMax, outside it
	// scores ClarityMax-1, and a candidate with no sentences at all
	// scores ClarityFloor.
	SentenceTargetMin float64
	SentenceTargetMax float64
	ClarityMax        int
	ClarityFloor      int

	// RedFlags are literal substrings indicating sloppy formatting
	// (doubled punctuation, stray spaces). Each detected red flag
	// (any literal hit, an unterminated final sentence, or a run of
	// CapsRunLength+ all-caps words) costs one point off LanguageMax,
	// to a floor of LanguageFloor.
	RedFlags      []string
	CapsRunLength int
	LanguageMax   int
	LanguageFloor int

	// ScoreMax clamps the combined score.
	ScoreMax int

	// ShortScoreCap clamps the score of candidates below MinWords: a
	// two-word summary cannot ride keyword hits to a high score.
	ShortScoreCap int
}

// DefaultConfig returns the scoring policy for financial-document
// summaries. Coverage (max 4) + clarity (max 3) + language (max 3)
// sums to the 0-10 scale.
func DefaultConfig() Config {
	return Config{
		Keywords: []string{
			"asset allocation",
			"sip",
			"tax",
			"portfolio",
			"emotional",
			"risk",
			"monitor",
			"rebalance",
		},
		CoverageCap: 4,
		HedgingTerms: []string{
			"maybe",
			"probably",
			"i think",
			"could",
			"might",
			"possibly",
			"unclear",
			"not sure",
		},
		MinWords:          25,
		SentenceTargetMin: 10,
		SentenceTargetMax: 20,
		ClarityMax:        3,
		ClarityFloor:      1,
		RedFlags: []string{
			"  ", // doubled space
			"..",
			" ,",
			",,",
			" .",
		},
		CapsRunLength: 4,
		LanguageMax:   3,
		LanguageFloor: 2,
		ScoreMax:      10,
		ShortScoreCap: 4,
	}
}
