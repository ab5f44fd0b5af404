/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "math"

// fits reports whether year may be inserted at index without breaking the
// ascending order of timeline. Equal years are accepted on either side.
func fits(timeline []Song, index, year int) bool {
	if index < 0 || index > len(timeline) {
		return false
	}

	lower, upper := math.MinInt, math.MaxInt
	if index > 0 {
		lower = timeline[index-1].Year
	}
	if index < len(timeline) {
		upper = timeline[index].Year
	}

	return lower <= year && year <= upper
}

// insertAt returns timeline with song placed at index.
func insertAt(timeline []Song, index int, song Song) []Song {
	out := make([]Song, 0, len(timeline)+1)
	out = append(out, timeline[:index]...)
	out = append(out, song)
	out = append(out, timeline[index:]...)

	return out
}

func containsSong(timeline []Song, id string) bool {
	for _, s := range timeline {
		if s.ID == id {
			return true
		}
	}

	return false
}
