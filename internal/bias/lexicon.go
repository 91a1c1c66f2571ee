package bias

import "slices"

const (
	CategoryPositive      = "positive"
	CategoryNegative      = "negative"
	CategoryControversial = "controversial"
	CategoryNone          = "neutral"
)

// Categories is the fixed declaration order used by both matching and
// GetWordContribution.
var Categories = []string{CategoryPositive, CategoryNegative, CategoryControversial}

func baseEmotionalWords() map[string][]string {
	return map[string][]string{
		CategoryPositive: {
			"amazing", "awesome", "breakthrough", "brilliant", "celebrate", "delight",
			"excellent", "extraordinary", "fantastic", "remarkable", "triumph", "wonderful",
			"victory", "success", "happy", "joyful", "praise", "champion", "perfect",
		},
		CategoryNegative: {
			"awful", "catastrophe", "crisis", "devastating", "disaster", "horrible",
			"terrible", "tragic", "alarming", "destroy", "danger", "deadly", "fail",
			"threat", "worst", "panic", "fear", "chaos", "fury", "outrage", "slam",
		},
		CategoryControversial: {
			"controversy", "controversial", "allegedly", "shocking", "scandal",
			"outrageous", "debate", "clash", "conflict", "dispute", "accused",
			"polarizing", "disputed", "contentious", "divided",
		},
	}
}

// warEmotionalWords are conflict-specific terms. Some entries repeat words from
// the base lists (and "invasion" appears twice); they are kept as listed.
func warEmotionalWords() map[string][]string {
	return map[string][]string{
		CategoryPositive: {
			"liberate", "defend", "protect", "secure", "alliance", "stability",
			"peace", "victory", "breakthrough", "reclaim", "courage", "heroic",
		},
		CategoryNegative: {
			"invasion", "attack", "casualties", "bombing", "violence", "atrocities",
			"war crime", "missile", "strike", "offensive", "invasion", "occupation",
			"regime", "escalation", "ultimatum", "threat",
		},
		CategoryControversial: {
			"operation", "incursion", "conflict", "tension", "confrontation", "dispute",
			"insurgent", "militant", "rebel", "resistance", "separatist", "loyalist",
		},
	}
}

type category struct {
	name  string
	words []string
}

// Lexicon is an ordered, read-only set of emotionally charged words.
type Lexicon struct {
	categories []category
}

var emotionalLexicon = NewLexicon(baseEmotionalWords(), warEmotionalWords())

// NewLexicon concatenates the word lists of each source per category, in the
// order given. Entries are neither deduplicated nor sorted.
func NewLexicon(sources ...map[string][]string) *Lexicon {
	l := &Lexicon{categories: make([]category, 0, len(Categories))}

	for _, name := range Categories {
		c := category{name: name}
		for _, src := range sources {
			c.words = append(c.words, src[name]...)
		}
		l.categories = append(l.categories, c)
	}

	return l
}

// EmotionalLexicon returns the process-wide lexicon used for scoring.
func EmotionalLexicon() *Lexicon {
	return emotionalLexicon
}

// Words returns a copy of the word list for a category, or nil if the category
// is unknown.
func (l *Lexicon) Words(name string) []string {
	for _, c := range l.categories {
		if c.name != name {
			continue
		}
		return append([]string{}, c.words...)
	}
	return nil
}

// Match tests every entry against text, which must already be lowercased.
// An entry matches at most once; entries that repeat a word are tested
// separately and each adds the word again.
func (l *Lexicon) Match(text string) []string {
	found := []string{}
	for _, c := range l.categories {
		for _, w := range c.words {
			if containsWord(text, w) {
				found = append(found, w)
			}
		}
	}
	return found
}

// Contribution returns the first category whose list contains word exactly.
func (l *Lexicon) Contribution(word string) string {
	for _, c := range l.categories {
		if slices.Contains(c.words, word) {
			return c.name
		}
	}
	return CategoryNone
}
