package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [subject]",
	Short: "Stream events from the bus (default subject: sbc.>)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL == "" {
			natsURL = os.Getenv("SBC_NATS_URL")
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL: pass --nats-url or set SBC_NATS_URL")
		}

		subject := "sbc.>"
		if len(args) == 1 {
			subject = args[0]
		}

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		msgs, cancel, err := sub.SubscribeMessages(subject)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "watching %s on %s\n", subject, natsURL)
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				printEvent(msg)
			}
		}
	},
}

// printEvent writes one event line: timestamp, subject, compacted payload.
func printEvent(msg events.Message) {
	var compact bytes.Buffer
	payload := string(msg.Data)
	if err := json.Compact(&compact, msg.Data); err == nil {
		payload = compact.String()
	}
	fmt.Printf("%s %s %s\n",
		ui.RenderMuted(time.Now().Format("15:04:05")),
		ui.RenderTopic(msg.Subject),
		payload,
	)
}

func init() {
	watchCmd.Flags().String("nats-url", "", "NATS server URL (default: SBC_NATS_URL)")
}
