package tokenizer

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// normalized is NFKC text with control characters removed, aligned back to
// the input it was derived from.
type normalized struct {
	text string

	// starts[i] and ends[i] bound the input segment that produced byte i.
	starts []int
	ends   []int
}

// normalize applies NFKC and drops control characters other than newline and
// tab, keeping the byte alignment with text.
func normalize(text string) normalized {
	var (
		it  norm.Iter
		out []byte
		n   normalized
	)

	it.InitString(norm.NFKC, text)
	for !it.Done() {
		segStart := it.Pos()
		seg := it.Next()
		segEnd := it.Pos()

		for len(seg) > 0 {
			r, size := utf8.DecodeRune(seg)
			if r == '\n' || r == '\t' || !unicode.IsControl(r) {
				out = append(out, seg[:size]...)
				for range size {
					n.starts = append(n.starts, segStart)
					n.ends = append(n.ends, segEnd)
				}
			}
			seg = seg[size:]
		}
	}

	n.text = string(out)
	return n
}

// source maps the normalized byte range [start, end) to the input range it
// came from. Out of range offsets are clamped.
func (n normalized) source(start, end int) (int, int) {
	if len(n.starts) == 0 {
		return 0, 0
	}
	start = min(max(start, 0), len(n.starts)-1)
	end = min(max(end, start+1), len(n.ends))
	return n.starts[start], n.ends[end-1]
}
