package folio

import (
	"errors"
	"fmt"
	"testing"
)

func numberedPosts(n int) []BlogPost {
	out := make([]BlogPost, n)
	for i := range out {
		out[i] = BlogPost{Slug: fmt.Sprintf("p%d", i+1)}
	}
	return out
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		total, perPage int
		want           int
	}{
		{0, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{11, 5, 3},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := PageNumbers(tt.total, tt.perPage); len(got) != tt.want {
			t.Errorf("PageNumbers(%d, %d) = %v, want %d pages", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	all := numberedPosts(5)
	tests := []struct {
		page      int
		wantPosts string
		prev      string
		next      string
	}{
		{1, "p1,p2", "", "/blog/2"},
		{2, "p3,p4", "/blog", "/blog/3"},
		{3, "p5", "/blog/2", ""},
	}
	for _, tt := range tests {
		pg, err := Paginate(all, tt.page, 2)
		if err != nil {
			t.Fatalf("Paginate(%d): %v", tt.page, err)
		}
		if got := slugs(pg.Posts); got != tt.wantPosts {
			t.Errorf("page %d posts = %s, want %s", tt.page, got, tt.wantPosts)
		}
		if pg.PrevURL != tt.prev || pg.NextURL != tt.next {
			t.Errorf("page %d prev/next = %q/%q, want %q/%q", tt.page, pg.PrevURL, pg.NextURL, tt.prev, tt.next)
		}
		if pg.TotalPages != 3 {
			t.Errorf("TotalPages = %d, want 3", pg.TotalPages)
		}
	}
}

func TestPaginateOutOfRange(t *testing.T) {
	for _, page := range []int{0, -1, 4} {
		if _, err := Paginate(numberedPosts(5), page, 2); !errors.Is(err, ErrNotFound) {
			t.Errorf("Paginate(page %d) error = %v, want ErrNotFound", page, err)
		}
	}
	pg, err := Paginate(nil, 1, 2)
	if err != nil {
		t.Fatalf("empty first page: %v", err)
	}
	if len(pg.Posts) != 0 || pg.TotalPages != 1 {
		t.Errorf("empty pagination = %+v", pg)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "/blog"},
		{1, "/blog"},
		{2, "/blog/2"},
	}
	for _, tt := range tests {
		if got := PageURL(tt.n); got != tt.want {
			t.Errorf("PageURL(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
