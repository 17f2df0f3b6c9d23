package browser

// Pagination tracks where the visitor is in the result set.
// CurrentPage stays within [1, LastPage()].
type Pagination struct {
	CurrentPage    int `json:"currentPage"`
	ResultsPerPage int `json:"resultsPerPage"`
	TotalResults   int `json:"totalResults"`
}

func NewPagination(perPage int) Pagination {
	return Pagination{CurrentPage: 1, ResultsPerPage: max(perPage, 1)}
}

// TotalPages is ceil(TotalResults / ResultsPerPage).
func (p Pagination) TotalPages() int {
	if p.TotalResults <= 0 {
		return 0
	}
	return (p.TotalResults + p.ResultsPerPage - 1) / p.ResultsPerPage
}

// LastPage is the highest page CurrentPage may take; 1 for an empty result set.
func (p Pagination) LastPage() int {
	return max(p.TotalPages(), 1)
}

func (p Pagination) HasPrev() bool { return p.CurrentPage > 1 }

func (p Pagination) HasNext() bool { return p.CurrentPage < p.LastPage() }

func (p Pagination) Offset() int { return (p.CurrentPage - 1) * p.ResultsPerPage }

// Next advances one page. At the last page it does nothing and returns false.
func (p *Pagination) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.CurrentPage++
	return true
}

// Prev goes back one page. At page 1 it does nothing and returns false.
func (p *Pagination) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.CurrentPage--
	return true
}

// Clamp pulls CurrentPage back into range after TotalResults changed.
func (p *Pagination) Clamp() bool {
	page := min(max(p.CurrentPage, 1), p.LastPage())
	if page == p.CurrentPage {
		return false
	}
	p.CurrentPage = page
	return true
}
