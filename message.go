package textgen

// Role represents "who" composed a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleAi     Role = "assistant"
)

// Message is a single turn of a conversation.
//
// An empty role is read as RoleUser.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// EffectiveRole returns the role of the message, defaulting to RoleUser.
func (m Message) EffectiveRole() Role {
	if m.Role == "" {
		return RoleUser
	}

	return m.Role
}
