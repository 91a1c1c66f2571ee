package sentiment

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/verity/internal/models"
)

// ErrMalformedText is returned for text that is not valid UTF-8.
var ErrMalformedText = errors.New("[Sentiment] text is not valid UTF-8")

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// Vader scores text with the VADER lexicon. The underlying analyzer is
// read-only after construction so a single Vader can be shared.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	input = urlPattern.ReplaceAllString(input, "")

	return input
}

// ConvertMarkdownToText renders markdown and strips the resulting markup so only
// the readable text is left.
func ConvertMarkdownToText(input string) string {
	input = RemoveLinks(input)
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))

	return strings.Join(strings.Fields(plainText), " ")
}

// Score returns the polarity and subjectivity of text. Polarity is the VADER
// compound score. VADER has no subjectivity measure, so the share of the text
// carrying positive or negative sentiment is used instead.
func (v *Vader) Score(text string) (models.SentimentScores, error) {
	if !utf8.ValidString(text) {
		return models.SentimentScores{}, ErrMalformedText
	}

	plainText := ConvertMarkdownToText(text)
	if plainText == "" {
		return models.SentimentScores{}, nil
	}

	s := v.analyzer.PolarityScores(plainText)

	return models.SentimentScores{
		Polarity:     clamp(s.Compound, -1, 1),
		Subjectivity: clamp(s.Positive+s.Negative, 0, 1),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
