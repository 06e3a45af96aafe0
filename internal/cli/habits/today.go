package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/bloomup/internal/cli"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	tc, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	tasks := tc.Tasks()
	if len(tasks) == 0 {
		fmt.Println("No active habits. Add one with 'bloomup habit add'.")
		return nil
	}

	fmt.Printf("Habits for %s:\n\n", ctx.Today())
	done := 0
	for _, t := range tasks {
		status := "[ ]"
		if t.Completed {
			status = "[x]"
			done++
		}
		fmt.Printf("%s %s %-24s %3d min  %d pomodoro(s)\n", status, t.Icon, t.Name, t.Minutes, t.RequiredPomos)
	}
	fmt.Printf("\nRecorded: %d/%d\n", done, len(tasks))
	return nil
}
