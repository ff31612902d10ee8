package domain

// ReconcileComments re-links comment aliases after a guest list save.
//
// A comment whose token matches no guest in newGuests is left as is: it keeps
// the alias it was posted with. So is a comment whose token was not held by
// the same guest in oldGuests. A comment whose guest kept the same slug is
// left as is. A comment whose guest changed slug gets the new alias. The
// number of rewritten comments is returned alongside the new slice.
func ReconcileComments(oldGuests, newGuests []Guest, comments []Comment) ([]Comment, int) {
	before := make(map[string]Guest, len(oldGuests))
	for _, g := range oldGuests {
		before[g.Token] = g
	}

	after := make(map[string]Guest, len(newGuests))
	for _, g := range newGuests {
		after[g.Token] = g
	}

	out := make([]Comment, len(comments))
	copy(out, comments)

	changed := 0
	for i := range out {
		c := &out[i]
		if c.Token == "" {
			continue
		}

		g, ok := after[c.Token]
		if !ok {
			continue
		}

		prev, had := before[c.Token]
		if !had || prev.ID != g.ID || prev.Slug == g.Slug {
			continue
		}

		alias := EncodeURIComponent(g.Alias())
		if c.Alias != alias {
			c.Alias = alias
			changed++
		}
	}

	return out, changed
}
