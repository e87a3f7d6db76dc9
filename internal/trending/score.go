// Package trending recomputes each user's personal ranking of stickers from
// their recent picks and publishes it as one atomic snapshot.
package trending

import (
	"math"
	"sort"
	"time"

	"github.com/qrsp/sticker-alias/internal/models"
)

const (
	// Window bounds the picks that count toward a score.
	Window = 90 * 24 * time.Hour

	// Gravity controls how fast a pick loses weight with age.
	Gravity = 1.8

	day = 24 * time.Hour
)

// AgeDays is the pick age in whole days, rounded half to even.
// Picks from the future count as age 0.
func AgeDays(now, chosenAt time.Time) int {
	age := math.RoundToEven(float64(now.Sub(chosenAt)) / float64(day))
	if age < 0 {
		return 0
	}
	return int(age)
}

// Contribution is the weight of one pick of the given age:
// 1 / (age+2)^Gravity, strictly decreasing in age.
func Contribution(ageDays int) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	return 1 / math.Pow(float64(ageDays+2), Gravity)
}

// Rank accumulates the contributions of events (assumed oldest first) per
// sticker and returns the stickers ordered by ascending total. The position
// in the returned slice is the stored rank, so the heaviest sticker gets the
// largest rank and is served first. Equal totals keep first-pick order.
func Rank(events []models.Chosen, now time.Time) []string {
	totals := make(map[string]float64)
	var order []string
	for _, e := range events {
		if now.Sub(e.ChosenAt) > Window {
			continue
		}
		if _, seen := totals[e.FileUniqueID]; !seen {
			order = append(order, e.FileUniqueID)
		}
		totals[e.FileUniqueID] += Contribution(AgeDays(now, e.ChosenAt))
	}
	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] < totals[order[j]]
	})
	return order
}
