package system

import (
	"fmt"
	"strings"

	"github.com/julianstephens/bloomup/internal/cli"
	"github.com/julianstephens/bloomup/internal/notifier"
)

// NotifyCmd sends a one-off desktop notification through the tray app.
type NotifyCmd struct {
	Text   []string `arg:"" help:"Notification text."`
	DryRun bool     `help:"Print the notification to stdout instead of sending it."`

	sender notifier.Sender
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		return fmt.Errorf("notification text is required")
	}
	if c.DryRun {
		fmt.Println("[DryRun] " + text)
		return nil
	}
	if c.sender == nil {
		c.sender = notifier.New()
	}
	if err := c.sender.Notify(text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
