// Package dataset provides the journal's bundled data: the four sample
// entries shown when no store is reachable, and the seed datasets used to
// bootstrap a remote store.
package dataset

import "github.com/Racej255/CrosslandApocalypse/internal/client/models"

var sample = []models.Entry{
	{
		ID:          "e1",
		Name:        "Rhea Crossland",
		Date:        "2039-04-18",
		Title:       "Smoke on the ridge",
		ContentHTML: "<p>Northern horizon burned all night. We counted six impacts. Supplies low, morale thinner.</p>",
	},
	{
		ID:          "e2",
		Name:        "Silas Wren",
		Date:        "2039-04-20",
		Title:       "Transit tunnel",
		ContentHTML: "<p>We reached the transit tunnel before dusk. The echo of footsteps follows us even when we stop.</p>",
	},
	{
		ID:          "e3",
		Name:        "Mara Voss",
		Date:        "2039-04-22",
		Title:       "The water table",
		ContentHTML: "<p>Found a clean vein beneath the old courthouse. Trading two batteries for a filter.</p>",
	},
	{
		ID:          "e4",
		Name:        "Rhea Crossland",
		Date:        "2039-04-25",
		Title:       "Last radio beacon",
		ContentHTML: "<p>Radio chatter says the coast is gone. We still keep watch for the southbound signal.</p>",
	},
}

// Sample returns a fresh copy of the fallback entries e1..e4.
func Sample() []models.Entry {
	out := make([]models.Entry, len(sample))
	copy(out, sample)
	return out
}
