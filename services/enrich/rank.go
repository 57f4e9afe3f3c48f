package enrich

import (
	"math"
	"strconv"
)

// Candidate is one catalog search hit. It lives only for the duration of a
// single resolution call.
type Candidate struct {
	ID            int64
	Title         string
	OriginalTitle string
	ReleaseDate   string
	VoteCount     int
	Popularity    float64

	ReleaseYear             *int
	NormalizedTitle         string
	NormalizedOriginalTitle string
}

func NewCandidate(id int64, title, originalTitle, releaseDate string, voteCount int, popularity float64) *Candidate {
	return &Candidate{
		ID:                      id,
		Title:                   title,
		OriginalTitle:           originalTitle,
		ReleaseDate:             releaseDate,
		VoteCount:               voteCount,
		Popularity:              popularity,
		ReleaseYear:             parseReleaseYear(releaseDate),
		NormalizedTitle:         Normalize(title),
		NormalizedOriginalTitle: Normalize(originalTitle),
	}
}

func parseReleaseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y == 0 {
		return nil
	}
	return &y
}

// stage is one step of the resolution chain: a filter over the candidates
// plus the tie-break used among the survivors.
type stage struct {
	match  func(c *Candidate) bool
	better func(a, b *Candidate) bool
}

// SelectBest picks the single best catalog hit for a normalized input title
// and an optional target year. The stages are strictly ordered: an exact
// nominal match is the strongest signal, a matching release year the second
// strongest, raw popularity the last resort. Returns nil only for an empty
// candidate list; given the same inputs it always returns the same candidate
// (earlier candidates win full ties).
func SelectBest(candidates []*Candidate, normalizedTitle string, targetYear *int) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	stages := []stage{
		{
			match: func(c *Candidate) bool {
				return normalizedTitle != "" &&
					(c.NormalizedTitle == normalizedTitle || c.NormalizedOriginalTitle == normalizedTitle)
			},
			better: crowdBetter(targetYear),
		},
		{
			match: func(c *Candidate) bool {
				return targetYear != nil && c.ReleaseYear != nil && *c.ReleaseYear == *targetYear
			},
			better: crowdBetter(targetYear),
		},
		{
			match:  func(c *Candidate) bool { return true },
			better: func(a, b *Candidate) bool { return a.Popularity > b.Popularity },
		},
	}
	for _, st := range stages {
		var best *Candidate
		for _, c := range candidates {
			if !st.match(c) {
				continue
			}
			if best == nil || st.better(c, best) {
				best = c
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// crowdBetter reports whether a ranks strictly above b: closest to the target
// year first (a missing release year counts as maximally distant), then vote
// count, then popularity.
func crowdBetter(targetYear *int) func(a, b *Candidate) bool {
	return func(a, b *Candidate) bool {
		if targetYear != nil {
			da, db := yearDistance(a, *targetYear), yearDistance(b, *targetYear)
			if da != db {
				return da < db
			}
		}
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return a.Popularity > b.Popularity
	}
}

func yearDistance(c *Candidate, target int) int {
	if c.ReleaseYear == nil {
		return math.MaxInt
	}
	d := *c.ReleaseYear - target
	if d < 0 {
		d = -d
	}
	return d
}
