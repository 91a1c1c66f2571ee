package models

type NewsAPITopHeadlinesResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	TotalResults int              `json:"totalResults"`
	Articles     []NewsAPIArticle `json:"articles"`
}

type NewsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NewsAPIArticle struct {
	Source      NewsAPISource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     string        `json:"content"`
}

// HeadlinesQuery holds the parameters sent to the top-headlines endpoint.
// Category is optional and omitted from the request when empty.
type HeadlinesQuery struct {
	Country  string
	Category string
	Page     int
	PageSize int
}
