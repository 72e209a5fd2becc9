package textgen

// History keeps the turns of a conversation so they can be replayed at the
// start of every new request with Request.WithHistory.
//
// It is generic in T so callers can keep richer records than Message, but
// only History[Message] can be replayed directly.
type History[T any] struct {
	history []T
}

// Save records messages at the end of the history.
func (h *History[T]) Save(messages ...T) {
	h.history = append(h.history, messages...)
}

// Load returns the saved messages, oldest first.
func (h *History[T]) Load() []T {
	return h.history
}

// Len returns the number of saved messages.
func (h *History[T]) Len() int {
	return len(h.history)
}

// Clear removes all history (including system instructions).
func (h *History[T]) Clear() {
	h.history = []T{}
}

// SaveCandidate records a response candidate as an assistant turn.
func SaveCandidate(h *History[Message], c Candidater, idx int) error {
	candidate, err := c.Candidate(idx)
	if err != nil {
		return err
	}

	h.Save(Message{Role: RoleAi, Content: candidate.Content})

	return nil
}
