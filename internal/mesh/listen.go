package mesh

import (
	"context"

	"github.com/pi-messenger/messenger/internal/inbox"
	"github.com/pi-messenger/messenger/internal/registry"
)

// Listen tails the caller's own inbox until ctx is canceled, invoking
// onText with each delivered message's decorated steer text. The
// decorator carries the configured orientation (registrationContext,
// replyHint, senderDetailsOnFirstContact) and keys first-contact cues on
// the sender's (name, session id) pair.
func (c *Coordinator) Listen(ctx context.Context, onText func(string)) error {
	self, err := c.self()
	if err != nil {
		return err
	}

	decorator := inbox.NewDecorator(
		c.Cfg.RegistrationContext,
		c.Cfg.ReplyHint,
		c.Cfg.SenderDetailsOnFirstContact,
		func(name string) (registry.Registration, bool) { return c.Registry.Get(name) },
	)

	watcher := inbox.NewWatcher(c.BaseDir, self.SessionID, func(msg inbox.Message) {
		onText(decorator.Decorate(msg))
	})
	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()
	return nil
}
