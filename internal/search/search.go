package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Category string `json:"category"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

// Query describes a search request.
type Query struct {
	Text           string
	FilterStatus   string
	FilterCategory string
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over complaints.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ComplaintRecord is the data we index for a complaint.
type ComplaintRecord struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}
