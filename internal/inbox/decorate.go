package inbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pi-messenger/messenger/internal/registry"
)

// Decorator augments delivered message text with host-configured
// orientation: a one-time registration context on the first delivery of
// the session, sender details on the first contact from each sender, and
// a reply hint on every message. First-contact tracking keys on the
// sender's (name, session id) pair, so a restarted process reusing a
// name is treated as a new contact.
type Decorator struct {
	RegistrationContext string
	ReplyHint           string
	SenderDetails       bool
	Lookup              func(name string) (registry.Registration, bool)

	mu       sync.Mutex
	seen     map[string]bool
	oriented bool
}

// NewDecorator builds a Decorator; lookup resolves a sender name to its
// live registration for session-id keying and sender details.
func NewDecorator(registrationContext, replyHint string, senderDetails bool, lookup func(name string) (registry.Registration, bool)) *Decorator {
	return &Decorator{
		RegistrationContext: registrationContext,
		ReplyHint:           replyHint,
		SenderDetails:       senderDetails,
		Lookup:              lookup,
		seen:                make(map[string]bool),
	}
}

// Decorate renders msg as the steer text the host injects into the
// recipient's turn, with any configured orientation attached.
func (d *Decorator) Decorate(msg Message) string {
	var reg registry.Registration
	var known bool
	if d.Lookup != nil {
		reg, known = d.Lookup(msg.Sender)
	}

	key := msg.Sender
	if known {
		key = msg.Sender + "\x00" + reg.SessionID
	}

	d.mu.Lock()
	firstContact := !d.seen[key]
	d.seen[key] = true
	firstDelivery := !d.oriented
	d.oriented = true
	d.mu.Unlock()

	var b strings.Builder
	if firstDelivery && d.RegistrationContext != "" {
		b.WriteString(d.RegistrationContext)
		b.WriteString("\n\n")
	}
	b.WriteString(FormatSteer(msg))
	if firstContact && d.SenderDetails && known {
		fmt.Fprintf(&b, "(%s is working in %s", msg.Sender, reg.Cwd)
		if reg.GitBranch != "" {
			fmt.Fprintf(&b, " on %s", reg.GitBranch)
		}
		if reg.Model != "" {
			fmt.Fprintf(&b, ", model %s", reg.Model)
		}
		b.WriteString(")\n")
	}
	if d.ReplyHint != "" {
		b.WriteString(d.ReplyHint)
		b.WriteString("\n")
	}
	return b.String()
}
