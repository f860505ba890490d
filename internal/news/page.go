package news

// DefaultPageSize is the number of articles on a listing page.
const DefaultPageSize = 10

// Page is one slice of a ranked listing.
type Page struct {
	Articles    []Article `json:"articles"`
	Number      int       `json:"page"`
	TotalPages  int       `json:"total_pages"`
	TotalItems  int       `json:"total_items"`
	HasNext     bool      `json:"has_next"`
	HasPrevious bool      `json:"has_previous"`
}

// Paginate returns page number (1-based) of articles. Out of range numbers are
// clamped to the first or last page. An empty listing has zero pages and
// reports page 1 with no articles.
func Paginate(articles []Article, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(articles)
	pages := (total + size - 1) / size

	if number < 1 {
		number = 1
	}
	if pages > 0 && number > pages {
		number = pages
	}
	if pages == 0 {
		return Page{Articles: []Article{}, Number: 1}
	}

	start := (number - 1) * size
	end := min(start+size, total)

	return Page{
		Articles:    Clone(articles[start:end]),
		Number:      number,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     number < pages,
		HasPrevious: number > 1,
	}
}
