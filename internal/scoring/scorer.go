// Package scoring evaluates candidate summaries with deterministic
// surface heuristics. It never calls a model: the whole point of the
// gate is that the judge is independent of the generator.
package scoring

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joescharf/sumgate/internal/models"
)

// Scorer computes quality reports for candidate summaries.
type Scorer struct {
	cfg Config

	// Whole-word matchers for the hedging lexicon, compiled once.
	hedgePatterns []*regexp.Regexp
}

// NewScorer builds a scorer from an explicit config.
func NewScorer(cfg Config) *Scorer {
	s := &Scorer{cfg: cfg}
	for _, term := range cfg.HedgingTerms {
		p := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
		s.hedgePatterns = append(s.hedgePatterns, p)
	}
	return s
}

// Score evaluates a candidate against its source document. It is a
// total, pure function: identical inputs always yield an identical
// report, and no string input produces an error.
func (s *Scorer) Score(source string, candidate *models.Candidate) models.QualityReport {
	text := candidate.Text
	words := strings.Fields(text)

	report := models.QualityReport{
		FlaggedTooShort:  len(words) < s.cfg.MinWords,
		FlaggedUncertain: false,
	}

	for i, p := range s.hedgePatterns {
		if p.MatchString(text) {
			report.FlaggedUncertain = true
			report.HedgeTerms = append(report.HedgeTerms, s.cfg.HedgingTerms[i])
		}
	}

	// Empty or whitespace-only candidates score zero outright.
	if len(words) == 0 {
		return report
	}

	report.Coverage, report.MatchedKeywords = s.scoreCoverage(text)
	report.Clarity = s.scoreClarity(text)
	report.Language = s.scoreLanguage(text, words)

	total := report.Coverage + report.Clarity + report.Language
	if report.FlaggedTooShort && total > s.cfg.ShortScoreCap {
		total = s.cfg.ShortScoreCap
	}
	if total > s.cfg.ScoreMax {
		total = s.cfg.ScoreMax
	}
	if total < 0 {
		total = 0
	}
	report.Score = total
	return report
}

// scoreCoverage counts domain keywords present in the candidate,
// case-insensitively, capped at CoverageCap.
func (s *Scorer) scoreCoverage(text string) (int, []string) {
	lower := strings.ToLower(text)
	var matched []string
	for _, kw := range s.cfg.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	score := len(matched)
	if score > s.cfg.CoverageCap {
		score = s.cfg.CoverageCap
	}
	return score, matched
}

// scoreClarity maps average sentence length to a sub-score. Sentences
// inside the target range score ClarityMax; outside it, one point
// less; no sentences at all scores ClarityFloor.
func (s *Scorer) scoreClarity(text string) int {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return s.cfg.ClarityFloor
	}
	total := 0
	for _, sent := range sentences {
		total += len(strings.Fields(sent))
	}
	avg := float64(total) / float64(len(sentences))
	if avg >= s.cfg.SentenceTargetMin && avg <= s.cfg.SentenceTargetMax {
		return s.cfg.ClarityMax
	}
	return s.cfg.ClarityMax - 1
}

// scoreLanguage starts at LanguageMax and subtracts one point per
// detected formatting red flag, floored at LanguageFloor.
func (s *Scorer) scoreLanguage(text string, words []string) int {
	score := s.cfg.LanguageMax

	for _, flag := range s.cfg.RedFlags {
		if strings.Contains(text, flag) {
			score--
			break // literal red flags count once, as a group
		}
	}

	if !endsTerminated(text) {
		score--
	}

	if s.cfg.CapsRunLength > 0 && hasCapsRun(words, s.cfg.CapsRunLength) {
		score--
	}

	if score < s.cfg.LanguageFloor {
		score = s.cfg.LanguageFloor
	}
	return score
}

// splitSentences splits on terminal punctuation and drops empty
// fragments.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var sentences []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			sentences = append(sentences, strings.TrimSpace(p))
		}
	}
	return sentences
}

// endsTerminated reports whether the text closes with terminal
// punctuation (ignoring trailing quotes and whitespace).
func endsTerminated(text string) bool {
	trimmed := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == ')' || r == '*'
	})
	if trimmed == "" {
		return false
	}
	last := rune(trimmed[len(trimmed)-1])
	return last == '.' || last == '!' || last == '?' || last == ':'
}

// hasCapsRun reports whether n or more consecutive words are entirely
// upper-case letters (acronym-length words excluded by requiring 2+
// letters each).
func hasCapsRun(words []string, n int) bool {
	run := 0
	for _, w := range words {
		if isShouted(w) {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func isShouted(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}
