package feed

import "github.com/desertthunder/moviex/internal/models"

// ResultSet is an arrival-ordered set of movies keyed by id. The first occurrence of an id wins.
type ResultSet struct {
	order []int64
	items map[int64]models.Movie
}

func NewResultSet() *ResultSet {
	return &ResultSet{items: make(map[int64]models.Movie)}
}

// Merge appends movies not already present and returns how many were added.
func (r *ResultSet) Merge(movies []models.Movie) int {
	added := 0
	for _, m := range movies {
		if _, ok := r.items[m.ID]; ok {
			continue
		}
		r.items[m.ID] = m
		r.order = append(r.order, m.ID)
		added++
	}
	return added
}

// Items returns the movies in merge order.
func (r *ResultSet) Items() []models.Movie {
	out := make([]models.Movie, len(r.order))
	for i, id := range r.order {
		out[i] = r.items[id]
	}
	return out
}

func (r *ResultSet) Len() int { return len(r.order) }

func (r *ResultSet) Contains(id int64) bool {
	_, ok := r.items[id]
	return ok
}

func (r *ResultSet) Reset() {
	r.order = nil
	r.items = make(map[int64]models.Movie)
}

// PageCursor tracks the last requested page and whether more are known to exist.
type PageCursor struct {
	Page    int
	HasMore bool
}

// NewPageCursor returns the cursor for a fresh query: page 1, more assumed.
func NewPageCursor() PageCursor {
	return PageCursor{Page: 1, HasMore: true}
}
