package app

import (
	"fmt"
	"time"

	"akhlak-learning-service/internal/domain"
)

// Percentage rounds 100*score/total half-up using integer arithmetic.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*score + total) / (2 * total)
}

type gradeBand struct {
	min   int
	grade string
}

var gradeBands = []gradeBand{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
}

// Grade maps a test percentage to its letter grade.
func Grade(percentage int) string {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return "D"
}

// Performance tiers. Quiz and test results both read these boundaries.
const (
	TierPerfect   = "perfect"
	TierExcellent = "excellent"
	TierGood      = "good"
	TierPass      = "pass"
	TierTryAgain  = "try_again"
)

type performanceBand struct {
	min     int
	tier    string
	message string
}

var performanceBands = []performanceBand{
	{100, TierPerfect, "سيمڤورنا! | Sempurna!"},
	{90, TierExcellent, "چميرلڠ! | Cemerlang!"},
	{80, TierGood, "باݢوس! | Bagus!"},
	{60, TierPass, "لولس! | Lulus!"},
}

// PerformanceFor returns the tiered message for a percentage.
func PerformanceFor(percentage int) domain.Performance {
	for _, b := range performanceBands {
		if percentage >= b.min {
			return domain.Performance{Tier: b.tier, Message: b.message}
		}
	}
	return domain.Performance{Tier: TierTryAgain, Message: "چوبا لاݢي! | Cuba Lagi!"}
}

// FormatDuration renders elapsed time as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
