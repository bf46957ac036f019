package chat

// Session is the identity of one authenticated caller.
type Session struct {
	UserID      UserID
	DisplayName string
	Email       string
}

// Owns reports whether the message was sent by this session's user.
func (s Session) Owns(m Message) bool {
	return s.UserID != "" && m.AuthorID == s.UserID
}
