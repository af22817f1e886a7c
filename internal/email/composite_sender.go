package email

import (
	"context"
	"fmt"
	"strings"
)

// CompositeSender fans a message out to several Senders, for example SMTP
// delivery plus a local audit log.
type CompositeSender struct {
	senders []Sender
}

// NewCompositeSender creates a CompositeSender over the given senders.
func NewCompositeSender(senders ...Sender) *CompositeSender {
	return &CompositeSender{senders: senders}
}

// AddSender registers another sender. Nil senders are ignored.
func (cs *CompositeSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send delivers through every registered sender. All senders are attempted
// even when an earlier one fails; the failures come back as one error.
func (cs *CompositeSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured")
	}

	var failures []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("composite email send failed: [ %s ]", strings.Join(failures, "; "))
	}
	return nil
}
