// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

// Score computes the weighted genre-overlap score between an ordered
// preference list and one movie's genre set.
//
// preferred is ordered by preference strength, most-preferred first. With
// n = len(preferred), the genre at index i contributes n-i when it appears
// in candidate, so the first declared genre carries weight n and the last
// weight 1. Genres absent from candidate contribute nothing. candidate's
// order and size do not affect the result.
//
// The score is a raw weighted sum, deliberately unnormalized. Every call
// site in the engine uses this one function; reintroducing inline variants
// (normalized scales, set-membership counts) silently corrupts the
// comparability of stored totals.
func Score(preferred, candidate []GenreID) int {
	n := len(preferred)
	if n == 0 || len(candidate) == 0 {
		return 0
	}

	in := make(map[GenreID]struct{}, len(candidate))
	for _, g := range candidate {
		in[g] = struct{}{}
	}

	total := 0
	for i, g := range preferred {
		if _, ok := in[g]; ok {
			total += n - i
		}
	}
	return total
}
