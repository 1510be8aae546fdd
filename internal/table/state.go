package table

// Direction is the sort direction of the active sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the active sort. A nil *Sort means input order.
type Sort struct {
	Key       string
	Direction Direction
}

// next returns the sort state after clicking the header for key.
// Clicking an already sorted column flips asc/desc; it never clears the sort.
func (s *Sort) next(key string) *Sort {
	if s != nil && s.Key == key && s.Direction == Asc {
		return &Sort{Key: key, Direction: Desc}
	}
	return &Sort{Key: key, Direction: Asc}
}

// Filters maps column key to free-text filter. Empty values impose no
// constraint; keys that match no column are ignored.
type Filters map[string]string

func (f Filters) clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
