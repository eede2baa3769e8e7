package checks

import (
	"context"
	"strings"

	"github.com/cataloro/probe/cataloro"
)

// MessagesCheck sends a message from admin to buyer, waits for it to land
// in the buyer's mailbox, and toggles its read flag.
func (s *Service) MessagesCheck(ctx context.Context) Result {
	r := newResult(CheckMessages)

	admin, adminUser, err := s.loginAdmin(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	buyer, buyerUser, err := s.loginBuyer(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	marker := probeMarker()
	sent, err := admin.SendMessage(ctx, adminUser.ID, cataloro.SendMessageRequest{
		RecipientID: buyerUser.ID,
		Subject:     "Probe delivery test",
		Content:     "delivery marker " + marker,
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("send.sender_id", adminUser.ID, sent.SenderID)
	r.expect("send.recipient_id", buyerUser.ID, sent.RecipientID)
	r.expectTrue("send.unread", !sent.Read, sent.Read)

	var delivered *cataloro.Message
	err = s.waitFor(ctx, "message delivery", func() (bool, error) {
		messages, err := buyer.Messages(ctx, buyerUser.ID)
		if err != nil {
			return false, err
		}
		for i := range messages {
			if strings.Contains(messages[i].Content, marker) {
				delivered = &messages[i]
				return true, nil
			}
		}
		return false, nil
	})
	r.expectTrue("deliver.in_buyer_mailbox", err == nil, err)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expectTrue("deliver.unread_on_arrival", !delivered.Read, delivered.Read)

	if err := buyer.MarkMessageRead(ctx, buyerUser.ID, delivered.ID); err != nil {
		r.fail(err)
		return r.done()
	}

	err = s.waitFor(ctx, "read flag", func() (bool, error) {
		messages, err := buyer.Messages(ctx, buyerUser.ID)
		if err != nil {
			return false, err
		}
		for _, m := range messages {
			if m.ID == delivered.ID {
				return m.Read, nil
			}
		}
		return false, nil
	})
	r.expectTrue("read.flag_toggled", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	return r.done()
}
