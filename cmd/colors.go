package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/khanhnv2901/cyberaudit/internal/checker"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass":
		return colorSuccess(status)
	case "warning", "warn":
		return colorWarn(status)
	case "error", "fail", "failed":
		return colorError(status)
	default:
		return status
	}
}

func formatRating(rating checker.Rating) string {
	label := strings.ToUpper(string(rating))
	switch rating {
	case checker.RatingExcellent:
		return colorSuccess(label)
	case checker.RatingAverage:
		return colorWarn(label)
	case checker.RatingCritical:
		return colorError(label)
	default:
		return label
	}
}

func formatFindingStatus(status checker.FindingStatus) string {
	return formatStatusWithColor(string(status))
}
