package pagination

// Page is 1-based page/limit pagination used by the browse endpoints.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps a page to sane values: page >= 1 and
// 1 <= limit <= maxLimit, with defaultLimit filling a missing limit.
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset returns the 0-based slice offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PageCount returns ceil(total/limit).
func PageCount(total int, limit int) int {
	if limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
