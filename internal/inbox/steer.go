package inbox

import "fmt"

// FormatSteer renders a delivered message as the system-reminder block
// the host runtime injects into the recipient's next turn so the message
// is visible as new user-facing input (a "steer" notification).
func FormatSteer(msg Message) string {
	if msg.ReplyTo != "" {
		return fmt.Sprintf("<system-reminder>\nMessage from %s (reply to %s): %s\n</system-reminder>\n",
			msg.Sender, msg.ReplyTo, msg.Text)
	}
	return fmt.Sprintf("<system-reminder>\nMessage from %s: %s\n</system-reminder>\n", msg.Sender, msg.Text)
}
