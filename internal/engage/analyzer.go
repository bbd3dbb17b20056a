package engage

import (
	"strings"
	"unicode"
)

// Analyzer classifies inbound human text with keyword heuristics: an
// intensity score on the heat scale, plus greeting and urgency cues for the
// scheduler.
type Analyzer struct{}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

var greetingWords = []string{
	"hola", "holi", "wena", "buenas", "hello", "hi", "hey", "ola", "saludos",
}

var strongWords = []string{
	"amor", "love", "te quiero", "hermosa", "hermoso", "linda", "lindo",
	"guapa", "guapo", "preciosa", "bella", "miss you", "te extrano",
}

var warmWords = []string{
	"jaja", "haha", "rico", "genial", "bacan", "cute", "nice", "bien",
	"gracias", "thanks",
}

var urgentCues = []string{
	"responde", "contesta", "are you there", "estas ahi", "hello??", "??",
	"apurate", "hurry", "ya pues", "helloo",
}

// Intensity scores text on the 0-10 scale used by the heat tracker.
func (a *Analyzer) Intensity(text string) int {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return 0
	}

	score := 3
	for _, w := range strongWords {
		if strings.Contains(lowered, w) {
			score += 3
		}
	}
	for _, w := range warmWords {
		if strings.Contains(lowered, w) {
			score++
		}
	}
	score += strings.Count(lowered, "!")
	if hasShoutedRun(text) {
		score++
	}
	return ClampHeat(score)
}

// IsGreeting reports whether the text reads as an opening greeting.
func (a *Analyzer) IsGreeting(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	for _, w := range greetingWords {
		if lowered == w || strings.HasPrefix(lowered, w+" ") || strings.HasPrefix(lowered, w+",") || strings.HasPrefix(lowered, w+"!") {
			return true
		}
	}
	return false
}

// IsUrgent reports whether the text carries impatience cues that warrant a
// faster reply.
func (a *Analyzer) IsUrgent(text string) bool {
	lowered := strings.ToLower(text)
	for _, cue := range urgentCues {
		if strings.Contains(lowered, cue) {
			return true
		}
	}
	return strings.Count(lowered, "?") >= 2
}

// hasShoutedRun reports whether the text contains a run of four or more
// uppercase letters.
func hasShoutedRun(text string) bool {
	run := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			run++
			if run >= 4 {
				return true
			}
		} else if unicode.IsLetter(r) {
			run = 0
		}
	}
	return false
}
