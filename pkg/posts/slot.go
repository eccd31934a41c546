package posts

// Slot holds the single post this client may author at a time. A new post
// can only be started once the previous one was closed or abandoned.
type Slot struct {
	current *AuthoredPost
}

// Begin claims the slot for a.
func (s *Slot) Begin(a *AuthoredPost) error {
	if s.current != nil && s.current.Active() {
		return ErrSlotOccupied
	}
	s.current = a
	return nil
}

// Current returns the active authored post or nil.
func (s *Slot) Current() *AuthoredPost {
	if s.current == nil || !s.current.Active() {
		return nil
	}
	return s.current
}

// Release empties the slot without closing the post.
func (s *Slot) Release() {
	s.current = nil
}
