package client

import (
	"errors"
	"log/slog"

	"github.com/vango-dev/livesync/pkg/posts"
	"github.com/vango-dev/livesync/pkg/protocol"
)

// postHandlers apply server messages to the post collection.
type postHandlers struct {
	conn    *Manager
	page    Page
	posts   *posts.Collection
	slot    *posts.Slot
	alerter Alerter
	logger  *slog.Logger
}

func (h *postHandlers) register(r *Router) {
	HandleJSON(r, protocol.MessageInvalid, h.invalid)
	HandleJSON(r, protocol.MessageInsertThread, h.insertThread)
	HandleJSON(r, protocol.MessageInsertPost, h.insertPost)
	HandleJSON(r, protocol.MessageAppend, h.append)
	HandleJSON(r, protocol.MessageBackspace, h.backspace)
	HandleJSON(r, protocol.MessageSplice, h.splice)
	HandleJSON(r, protocol.MessageClosePost, h.closePost)
	HandleJSON(r, protocol.MessageInsertImage, h.insertImage)
	HandleJSON(r, protocol.MessageSpoiler, h.spoiler)
	HandleJSON(r, protocol.MessageDeletePost, h.deletePost)
	HandleJSON(r, protocol.MessageBanned, h.banned)
	HandleJSON(r, protocol.MessageDeleteImage, h.deleteImage)
	HandleJSON(r, protocol.MessagePostID, h.postID)
	HandleJSON(r, protocol.MessageRedirect, h.redirect)
	HandleJSON(r, protocol.MessageNotification, h.notification)
}

// invalid is sent by the server when it can no longer make sense of this
// client. There is no recovery short of reloading.
func (h *postHandlers) invalid(reason string) error {
	err := &ProtocolError{Reason: reason}
	h.alerter.Alert(reason)
	h.conn.Desync(err)
	return err
}

func (h *postHandlers) insertThread(t protocol.ThreadData) error {
	// Threads are only inserted live on board pages
	if h.page.Thread() != 0 || h.posts.Has(t.ID) {
		return nil
	}
	h.posts.Add(posts.NewOpeningPost(t))
	return nil
}

func (h *postHandlers) insertPost(data protocol.PostData) error {
	// Our own post, or one the server sent twice
	if h.posts.Has(data.ID) {
		return nil
	}
	h.posts.Add(posts.NewPost(data))
	return nil
}

func (h *postHandlers) append(m protocol.AppendMessage) error {
	return h.withPost(m.ID, protocol.MessageAppend, func(p *posts.Post) error {
		return p.Append(m.Char)
	})
}

func (h *postHandlers) backspace(id uint64) error {
	return h.withPost(id, protocol.MessageBackspace, (*posts.Post).Backspace)
}

func (h *postHandlers) splice(m protocol.SpliceMessage) error {
	return h.withPost(m.ID, protocol.MessageSplice, func(p *posts.Post) error {
		return p.Splice(m.Splice)
	})
}

func (h *postHandlers) closePost(m protocol.CloseMessage) error {
	return h.withPost(m.ID, protocol.MessageClosePost, func(p *posts.Post) error {
		p.Close(m.Links, m.Commands)
		return nil
	})
}

func (h *postHandlers) insertImage(m protocol.ImageMessage) error {
	return h.withPost(m.ID, protocol.MessageInsertImage, func(p *posts.Post) error {
		p.InsertImage(m.Image)
		return nil
	})
}

func (h *postHandlers) spoiler(id uint64) error {
	return h.withPost(id, protocol.MessageSpoiler, func(p *posts.Post) error {
		p.SpoilerImage()
		return nil
	})
}

func (h *postHandlers) deletePost(id uint64) error {
	return h.withPost(id, protocol.MessageDeletePost, func(p *posts.Post) error {
		p.SetDeleted()
		return nil
	})
}

func (h *postHandlers) banned(id uint64) error {
	return h.withPost(id, protocol.MessageBanned, func(p *posts.Post) error {
		p.SetBanned()
		return nil
	})
}

func (h *postHandlers) deleteImage(id uint64) error {
	return h.withPost(id, protocol.MessageDeleteImage, func(p *posts.Post) error {
		p.RemoveImage()
		return nil
	})
}

// postID allocates the pending draft.
func (h *postHandlers) postID(id uint64) error {
	a := h.slot.Current()
	if a == nil || a.Status() != posts.StatusDraft {
		h.logger.Debug("post ID without draft", "post", id)
		return nil
	}
	p, err := a.Allocate(id, h.conn.clock.Now().Unix())
	if err != nil {
		return err
	}
	h.posts.Add(p)
	h.logger.Info("post allocated", "post", id)
	return nil
}

func (h *postHandlers) redirect(board string) error {
	h.alerter.Alert("redirected to /" + board + "/")
	return nil
}

func (h *postHandlers) notification(msg string) error {
	h.alerter.Alert(msg)
	return nil
}

// withPost runs fn on a known post. Messages for posts this client does not
// have, or for posts already closed locally, are expected after reconnects
// and are dropped.
func (h *postHandlers) withPost(id uint64, t protocol.MessageType, fn func(*posts.Post) error) error {
	p, ok := h.posts.Get(id)
	if !ok {
		h.logger.Debug("message for unknown post", "type", t, "post", id)
		return nil
	}
	err := fn(p)
	if errors.Is(err, posts.ErrPostClosed) {
		h.logger.Debug("message for closed post", "type", t, "post", id)
		return nil
	}
	return err
}
