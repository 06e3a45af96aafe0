package habits

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/utils"
)

const logNameWidth = 20

// renderLog draws one row per habit with an x for each completed day in
// the window ending on today.
func renderLog(habits []models.Habit, today string, days int) string {
	start, err := utils.AddDays(today, -(days - 1))
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", logNameWidth))
	for i := 0; i < days; i++ {
		d, _ := utils.AddDays(start, i)
		t, _ := time.Parse(constants.DateFormat, d)
		fmt.Fprintf(&b, " %5s", t.Format("01/02"))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", logNameWidth+6*days))
	b.WriteString("\n")

	for _, h := range habits {
		b.WriteString(padName(h.Name))
		for i := 0; i < days; i++ {
			d, _ := utils.AddDays(start, i)
			if h.CompletedOn(d) {
				b.WriteString("  x   ")
			} else {
				b.WriteString("  .   ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func padName(name string) string {
	r := []rune(name)
	if len(r) > logNameWidth {
		return string(r[:logNameWidth-3]) + "..."
	}
	return name + strings.Repeat(" ", logNameWidth-len(r))
}

func renderWeek(h models.Habit, ws models.WeeklyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s, week of %s\n\n", h.Icon, h.Name, ws.WeekStart)
	for _, d := range ws.Days {
		t, _ := time.Parse(constants.DateFormat, d.Date)
		mark := "[ ]"
		if d.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "  %s %s %s\n", mark, t.Format("Mon"), d.Date)
	}
	fmt.Fprintf(&b, "\nCompleted:      %d/7 (%d%%)\n", ws.CompletedCount, ws.Percent)
	fmt.Fprintf(&b, "Current streak: %d\n", ws.CurrentStreak)
	fmt.Fprintf(&b, "Best streak:    %d\n", ws.BestStreak)
	return b.String()
}
