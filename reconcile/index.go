package reconcile

import "strings"

type indexKey struct {
	company  string
	position string
}

// Index maps normalized (company, position) pairs to 1-based sheet rows. It
// reflects a single table snapshot and must be discarded at the end of the
// run that built it.
type Index struct {
	rows    map[indexKey]int
	nextRow int // row the next append lands on
}

// normalize folds case and trims whitespace so that " Acme Corp " and
// "acme corp" key the same application.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BuildIndex indexes a full-table snapshot. Row 1 is the header and is
// skipped; rows without both a company and a position are ignored. When two
// rows share a key, the later row wins: the sheet is append-ordered, so the
// most recent state is the authoritative one.
func BuildIndex(snapshot [][]string) *Index {
	idx := &Index{
		rows:    make(map[indexKey]int),
		nextRow: len(snapshot) + 1,
	}
	for i, row := range snapshot {
		if i == 0 || len(row) < 2 {
			continue
		}
		company := normalize(row[0])
		position := normalize(row[1])
		if company == "" || position == "" {
			continue
		}
		idx.rows[indexKey{company, position}] = i + 1
	}
	return idx
}

// Lookup returns the sheet row holding the given application, if any.
func (x *Index) Lookup(company, position string) (int, bool) {
	row, ok := x.rows[indexKey{normalize(company), normalize(position)}]
	return row, ok
}

// Insert records a freshly appended key and returns the row it was given.
// Appends are counted locally so that several appends in one run each get
// their own row number without re-reading the table.
func (x *Index) Insert(company, position string) int {
	row := x.nextRow
	x.rows[indexKey{normalize(company), normalize(position)}] = row
	x.nextRow++
	return row
}

// Len reports how many applications the index holds.
func (x *Index) Len() int {
	return len(x.rows)
}
