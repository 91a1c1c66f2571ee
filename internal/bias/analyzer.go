package bias

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spacesedan/verity/internal/models"
	"github.com/spacesedan/verity/internal/sentiment"
)

const (
	LabelNeutral        = "Neutral"
	LabelSlightlyBiased = "Slightly Biased"
	LabelHighlyBiased   = "Highly Biased"
	LabelError          = "Error"

	ColorSuccess   = "success"
	ColorWarning   = "warning"
	ColorDanger    = "danger"
	ColorSecondary = "secondary"
)

const (
	POLARITY_WEIGHT       = 0.3
	SUBJECTIVITY_WEIGHT   = 0.4
	EMOTIONAL_WEIGHT      = 0.3
	EMOTIONAL_SATURATION  = 3
	HIGH_BIAS_THRESHOLD   = 0.65
	SLIGHT_BIAS_THRESHOLD = 0.3
)

// Sentimenter is the sentiment collaborator. Implementations may fail on input
// they cannot handle.
type Sentimenter interface {
	Score(text string) (models.SentimentScores, error)
}

var errNoSentiment = errors.New("[BiasAnalyzer] no sentiment analyzer configured")

type Analyzer struct {
	sentiment Sentimenter
	lexicon   *Lexicon
}

func NewAnalyzer(s Sentimenter) *Analyzer {
	return &Analyzer{
		sentiment: s,
		lexicon:   EmotionalLexicon(),
	}
}

var (
	defaultAnalyzer     *Analyzer
	defaultAnalyzerOnce sync.Once
)

// Default returns a process-wide Analyzer backed by VADER.
func Default() *Analyzer {
	defaultAnalyzerOnce.Do(func() {
		defaultAnalyzer = NewAnalyzer(sentiment.NewVader())
	})
	return defaultAnalyzer
}

// AnalyzeHeadline scores headline with the default analyzer.
func AnalyzeHeadline(headline string) models.BiasAssessment {
	return Default().AnalyzeHeadline(headline)
}

// GetWordContribution reports which lexicon category word belongs to, or
// "neutral" when it is in none of them.
func GetWordContribution(word string) string {
	return EmotionalLexicon().Contribution(strings.ToLower(word))
}

// AnalyzeHeadline blends sentiment and emotional word matches into a bias
// assessment. It never fails: if the sentiment collaborator errors the failure
// is logged and the Error assessment is returned.
func (a *Analyzer) AnalyzeHeadline(headline string) models.BiasAssessment {
	scores, err := a.score(headline)
	if err != nil {
		slog.Error("[BiasAnalyzer] Error analyzing headline",
			slog.String("headline", headline),
			slog.String("error", err.Error()))
		return ErrorAssessment()
	}

	found := a.lexicon.Match(strings.ToLower(headline))
	emotionalFactor := float64(min(len(found), EMOTIONAL_SATURATION)) / EMOTIONAL_SATURATION

	score := POLARITY_WEIGHT*math.Abs(scores.Polarity) +
		SUBJECTIVITY_WEIGHT*scores.Subjectivity +
		EMOTIONAL_WEIGHT*emotionalFactor

	label := CategoryForScore(score)

	return models.BiasAssessment{
		BiasScore:           round2(score),
		BiasCategory:        label,
		BiasColor:           ColorForCategory(label),
		FoundEmotionalWords: found,
		Polarity:            round2(scores.Polarity),
		Subjectivity:        round2(scores.Subjectivity),
	}
}

// score validates the headline, then calls the collaborator on its lowercased
// form. A panic in the collaborator is reported as an error.
func (a *Analyzer) score(headline string) (scores models.SentimentScores, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("[BiasAnalyzer] sentiment panicked: %v", r)
		}
	}()

	if a.sentiment == nil {
		return scores, errNoSentiment
	}
	if !utf8.ValidString(headline) {
		return scores, sentiment.ErrMalformedText
	}
	return a.sentiment.Score(strings.ToLower(headline))
}

func ErrorAssessment() models.BiasAssessment {
	return models.BiasAssessment{
		BiasScore:           0,
		BiasCategory:        LabelError,
		BiasColor:           ColorSecondary,
		FoundEmotionalWords: []string{},
		Polarity:            0,
		Subjectivity:        0,
	}
}

// CategoryForScore buckets a bias score. Both thresholds are exclusive, so a
// score sitting exactly on one falls into the lower bucket.
func CategoryForScore(score float64) string {
	switch {
	case score > HIGH_BIAS_THRESHOLD:
		return LabelHighlyBiased
	case score > SLIGHT_BIAS_THRESHOLD:
		return LabelSlightlyBiased
	default:
		return LabelNeutral
	}
}

func ColorForCategory(label string) string {
	switch label {
	case LabelNeutral:
		return ColorSuccess
	case LabelSlightlyBiased:
		return ColorWarning
	case LabelHighlyBiased:
		return ColorDanger
	default:
		return ColorSecondary
	}
}

// round2 rounds the exact binary value of v to two decimals, with exact ties
// going to the even digit.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil || r == 0 {
		return 0 // avoid -0 in JSON
	}
	return r
}
