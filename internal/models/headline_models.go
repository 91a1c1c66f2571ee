package models

// BiasAssessment is the result of scoring a single headline. The numeric fields
// are rounded to two decimals.
type BiasAssessment struct {
	BiasScore           float64  `json:"bias_score" yaml:"bias_score"`
	BiasCategory        string   `json:"bias_category" yaml:"bias_category"`
	BiasColor           string   `json:"bias_color" yaml:"bias_color"`
	FoundEmotionalWords []string `json:"found_emotional_words" yaml:"found_emotional_words"`
	Polarity            float64  `json:"polarity" yaml:"polarity"`
	Subjectivity        float64  `json:"subjectivity" yaml:"subjectivity"`
}

// AnalyzedArticle is a NewsAPI article with its bias assessment merged in.
// Both embedded structs are flattened when encoded to JSON.
type AnalyzedArticle struct {
	NewsAPIArticle
	BiasAssessment
}

// NewsPage is one page of analyzed headlines as served to the browser.
type NewsPage struct {
	Articles     []AnalyzedArticle `json:"articles"`
	TotalResults int               `json:"totalResults"`
	HasMore      bool              `json:"hasMore"`
}
