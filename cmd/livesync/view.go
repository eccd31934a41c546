package main

import (
	"log/slog"

	"github.com/vango-dev/livesync/pkg/posts"
)

// logRenderer renders posts as log records.
type logRenderer struct {
	logger *slog.Logger
}

func (r *logRenderer) Render(p *posts.Post) posts.View {
	return &logView{post: p, logger: r.logger.With("post", p.ID())}
}

// logView reports the changes of a single post. Character level edits are
// logged at debug level, everything else at info.
type logView struct {
	post   *posts.Post
	logger *slog.Logger
}

func (v *logView) AppendString(s string) {
	v.logger.Debug("text appended", "text", s)
}

func (v *logView) Backspace() {
	v.logger.Debug("character removed")
}

func (v *logView) ReparseLine() {
	v.logger.Debug("line edited", "line", v.post.State().Line)
}

func (v *logView) StartNewLine() {
	v.logger.Debug("line terminated")
}

func (v *logView) ClosePost() {
	v.logger.Info("post closed", "body", v.post.Body())
}

func (v *logView) RenderContents() {
	v.logger.Info("post updated", "body", v.post.Body(), "editing", v.post.Editing())
}

func (v *logView) RenderImage() {
	if img := v.post.Image(); img != nil {
		v.logger.Info("image added", "name", img.Name, "size", img.Size, "spoiler", img.Spoiler)
	}
}

func (v *logView) SetBanned() {
	v.logger.Warn("poster banned")
}

func (v *logView) SetDeleted() {
	v.logger.Info("post deleted")
}

func (v *logView) RemoveImage() {
	v.logger.Info("image removed")
}

func (v *logView) Remove() {
	v.logger.Debug("view removed")
}
