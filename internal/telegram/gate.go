package telegram

// Gate restricts a group-scoped deployment to direct messages and one
// designated group, optionally one thread of it. The zero Gate allows all.
type Gate struct {
	Enabled  bool
	GroupID  int64
	ThreadID int
}

// Allow reports whether msg should be processed.
func (g Gate) Allow(msg *Message) bool {
	if !g.AllowChat(msg.Chat) {
		return false
	}
	if !g.Enabled || msg.Chat.IsPrivate() {
		return true
	}
	return g.ThreadID == 0 || msg.MessageThreadID == g.ThreadID
}

// AllowChat applies only the chat half of the gate. Service messages and
// button presses use it since they do not reliably carry a thread.
func (g Gate) AllowChat(chat Chat) bool {
	if !g.Enabled || chat.IsPrivate() {
		return true
	}
	return chat.ID == g.GroupID
}
