package folio

import "strconv"

// Pagination is one page of the blog listing.
type Pagination struct {
	Page       int
	TotalPages int
	Pages      []int
	Posts      []BlogPost
	PrevURL    string
	NextURL    string
}

// PageNumbers returns 1..ceil(total/perPage). An empty list has one page.
func PageNumbers(total, perPage int) []int {
	if perPage <= 0 {
		perPage = 1
	}
	n := (total + perPage - 1) / perPage
	if n < 1 {
		n = 1
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Paginate returns the given page of posts. Pages outside 1..TotalPages
// return ErrNotFound.
func Paginate(posts []BlogPost, page, perPage int) (Pagination, error) {
	if perPage <= 0 {
		perPage = 1
	}
	pages := PageNumbers(len(posts), perPage)
	if page < 1 || page > len(pages) {
		return Pagination{}, ErrNotFound
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(posts) {
		end = len(posts)
	}
	p := Pagination{
		Page:       page,
		TotalPages: len(pages),
		Pages:      pages,
		Posts:      posts[start:end],
	}
	if page > 1 {
		p.PrevURL = PageURL(page - 1)
	}
	if page < len(pages) {
		p.NextURL = PageURL(page + 1)
	}
	return p, nil
}

// PageURL returns the canonical URL of a blog listing page.
func PageURL(n int) string {
	if n <= 1 {
		return "/blog"
	}
	return "/blog/" + strconv.Itoa(n)
}
