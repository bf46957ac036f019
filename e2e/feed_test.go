package e2e

import (
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/errors"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type FeedSuite struct {
	BaseFeedSuite
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedSuite))
}

func (s *FeedSuite) join(p *Participant, name, email string) {
	session, err := p.Gate.SignUp(context.Background(), name, email, "secret-"+name)
	s.Require().NoError(err)
	p.Session = session
	s.Require().NoError(p.Synchronizer.Start(context.Background(), session))
}

func (s *FeedSuite) TestTwoParticipantsShareOneFeed() {
	ctx := context.Background()
	alice, bob := s.NewParticipant(), s.NewParticipant()
	defer alice.Leave()
	defer bob.Leave()

	s.Step("Alice joins an empty room and says hi", func() {
		s.join(alice, "Alice", "alice@example.com")
		_, err := alice.Messages.Append(ctx, alice.Session, chat.PostMessageCommand{Text: "hi"})
		s.Require().NoError(err)
		s.WaitFeed(alice, 1)

		fetched, err := alice.Messages.FetchAll(ctx)
		s.Require().NoError(err)
		s.Require().Len(fetched, 1)
		s.Require().Equal("hi", fetched[0].Text)
		s.Require().Equal(alice.Session.UserID, fetched[0].AuthorID)
		s.Require().False(fetched[0].HasAttachment())
	})

	s.Step("Bob joins and sees the history", func() {
		s.join(bob, "Bob", "bob@example.com")
		s.Require().Equal(1, bob.Feed.Len())
	})

	s.Step("Bob posts an image that reaches Alice live", func() {
		data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024)...)
		id, err := bob.Messages.UploadAttachment(ctx, chat.UploadAttachmentCommand{
			Filename: "cat.png", MimeType: "image/png", Data: data,
		})
		s.Require().NoError(err)
		_, err = bob.Messages.Append(ctx, bob.Session, chat.PostMessageCommand{Text: "look", AttachmentID: &id})
		s.Require().NoError(err)

		s.WaitFeed(alice, 2)
		s.WaitFeed(bob, 2)
		last := alice.Feed.Messages()[1]
		s.Require().Equal("Bob", last.AuthorName)
		s.Require().True(last.HasAttachment())
		url, err := alice.Messages.AttachmentURL(*last.AttachmentID)
		s.Require().NoError(err)
		s.Require().Equal(fmt.Sprintf("blob://%s/%s", bucket, id), url)
	})

	s.Step("Fetch pages through the whole collection in order", func() {
		for i := range 5 {
			_, err := alice.Messages.Append(ctx, alice.Session, chat.PostMessageCommand{Text: fmt.Sprintf("m%d", i)})
			s.Require().NoError(err)
		}
		s.WaitFeed(bob, 7)

		fetched, err := bob.Messages.FetchAll(ctx)
		s.Require().NoError(err)
		s.Require().Len(fetched, 7)
		s.Require().True(lo.IsSortedByKey(fetched, func(m chat.Message) int64 { return m.CreatedAt.UnixNano() }))
		s.Require().Equal(
			lo.Map(bob.Feed.Messages(), func(m chat.Message, _ int) chat.MessageID { return m.ID }),
			lo.Map(fetched, func(m chat.Message, _ int) chat.MessageID { return m.ID }),
		)
	})

	s.Step("Alice leaves and Bob keeps receiving nothing from her closed feed", func() {
		alice.Leave()
		s.Require().Contains(alice.Statuses.Types(), event.FeedStoppedType)
		s.Require().NotContains(bob.Statuses.Types(), event.FeedDegradedType)
	})
}

func (s *FeedSuite) TestRejectedInputsLeaveTheClientUsable() {
	ctx := context.Background()
	alice := s.NewParticipant()
	defer alice.Leave()

	s.Step("Sign up validation happens before the backend", func() {
		_, err := alice.Gate.SignUp(ctx, "Alice", "alice@example.com", "")
		s.Require().True(errors.IsValidation(err))
	})

	s.Step("A duplicate account is an auth error", func() {
		s.join(alice, "Alice", "alice@example.com")
		other := s.NewParticipant()
		_, err := other.Gate.SignUp(ctx, "Alice", "alice@example.com", "secret-Alice")
		s.Require().True(errors.IsAuth(err))
		s.Require().ErrorIs(err, errors.ErrUserAlreadyExists)
	})

	s.Step("Oversized and non image attachments are refused", func() {
		_, err := alice.Messages.UploadAttachment(ctx, chat.UploadAttachmentCommand{
			Filename: "big.png", MimeType: "image/png", SizeBytes: 6 << 20, Data: pngHeader,
		})
		s.Require().True(errors.IsValidation(err))
		_, err = alice.Messages.UploadAttachment(ctx, chat.UploadAttachmentCommand{
			Filename: "notes.txt", MimeType: "text/plain", Data: []byte("plain text"),
		})
		s.Require().True(errors.IsValidation(err))
	})

	s.Step("An empty message is refused and the next one goes through", func() {
		_, err := alice.Messages.Append(ctx, alice.Session, chat.PostMessageCommand{Text: "   "})
		s.Require().True(errors.IsValidation(err))
		_, err = alice.Messages.Append(ctx, alice.Session, chat.PostMessageCommand{Text: "still here"})
		s.Require().NoError(err)
		s.WaitFeed(alice, 1)
	})

	s.Step("After log out the probe finds no session", func() {
		alice.Gate.LogOut(ctx)
		session, err := alice.Gate.CurrentSession(ctx)
		s.Require().NoError(err)
		s.Require().Nil(session)
	})
}
