package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

const (
	DefaultThreshold = 0.3
	// phraseBoost is added when the whole topic name appears in the brief.
	phraseBoost = 0.5
)

var folder = cases.Fold()

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "how": {}, "in": {}, "into": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "the": {}, "their": {}, "to": {}, "we": {}, "with": {}, "about": {}, "this": {}, "that": {},
}

type Match struct {
	Topic      entities.Topic `json:"topic"`
	MatchScore float64        `json:"matchScore"`
}

type Matcher struct {
	Threshold float64
}

func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// NormalizeName is the identity key for topic names: case folded, NFKC,
// trimmed, inner whitespace collapsed.
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(folder.String(s)), " ")
}

func words(s string) []string {
	s = folder.String(norm.NFKC.String(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokens returns the scoring vocabulary of s.
func Tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range words(s) {
		if r := []rune(w); len(r) < 2 && !unicode.IsDigit(r[0]) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// containsPhrase reports whether the word sequence of phrase occurs in text.
func containsPhrase(text, phrase string) bool {
	p := words(phrase)
	if len(p) == 0 {
		return false
	}
	return strings.Contains(" "+strings.Join(words(text), " ")+" ", " "+strings.Join(p, " ")+" ")
}

// Score rates how well topic t fits the brief text, in [0,1].
func Score(briefText string, t entities.Topic) float64 {
	score := jaccard(Tokens(briefText), Tokens(t.Name+" "+t.Description+" "+t.Category))
	if containsPhrase(briefText, t.Name) {
		score = math.Min(1, score+phraseBoost)
	}
	return score
}

// NameSimilarity compares two topic names: 1 for equal normalized names,
// otherwise the Jaccard similarity of their tokens.
func NameSimilarity(a, b string) float64 {
	if NormalizeName(a) == NormalizeName(b) {
		return 1
	}
	return jaccard(Tokens(a), Tokens(b))
}

// Match scores every topic against the brief text and returns those at or
// above the threshold, best first. Ties go to the most recently used topic,
// then to the alphabetically first name.
func (m *Matcher) Match(briefText string, topics []entities.Topic) []Match {
	out := make([]Match, 0, len(topics))
	for _, t := range topics {
		sc := Score(briefText, t)
		if sc < m.Threshold {
			continue
		}
		out = append(out, Match{Topic: t, MatchScore: round3(sc)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		au, bu := a.Topic.LastUsedAt, b.Topic.LastUsedAt
		switch {
		case au != nil && bu == nil:
			return true
		case au == nil && bu != nil:
			return false
		case au != nil && bu != nil && !au.Equal(*bu):
			return au.After(*bu)
		}
		return strings.ToLower(a.Topic.Name) < strings.ToLower(b.Topic.Name)
	})
	return out
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
