package markdown

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Slug converts heading text to an anchor ID: lowercase, only [a-z0-9-],
// whitespace runs become a single dash, no leading or trailing dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == '-', r == ' ', r == '\t', r == '\n', r == '\r':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// headingIDs implements parser.IDs so heading anchors and the TOC agree.
type headingIDs struct {
	seen map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: map[string]int{}}
}

func (h *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := Slug(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	if n, ok := h.seen[base]; ok {
		for {
			n++
			id = base + "-" + strconv.Itoa(n)
			if _, taken := h.seen[id]; !taken {
				break
			}
		}
		h.seen[base] = n
	}
	h.seen[id] = 0
	return []byte(id)
}

func (h *headingIDs) Put(value []byte) {
	h.seen[string(value)] = 0
}
