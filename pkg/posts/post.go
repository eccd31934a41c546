package posts

import (
	"strings"

	"github.com/vango-dev/livesync/pkg/edit"
	"github.com/vango-dev/livesync/pkg/protocol"
)

// Kind is the variant of a post.
type Kind uint8

const (
	KindPost Kind = iota
	KindOpeningPost
	KindAuthored
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPost:
		return "Post"
	case KindOpeningPost:
		return "OpeningPost"
	case KindAuthored:
		return "Authored"
	default:
		return "Unknown"
	}
}

// Editable is the set of live edit operations every post variant accepts
// from the server.
type Editable interface {
	Append(r rune) error
	Backspace() error
	Splice(s edit.Splice) error
	Close(links protocol.Links, commands []protocol.Command) bool
}

var _ Editable = (*Post)(nil)

// ThreadMeta is the thread level data carried by an opening post.
type ThreadMeta struct {
	Board     string
	Subject   string
	Sticky    bool
	Locked    bool
	PostCtr   uint32
	ImageCtr  uint32
	ReplyTime int64
	BumpTime  int64
}

// Post is the model of a single post.
type Post struct {
	kind    Kind
	data    protocol.PostData
	thread  *ThreadMeta
	state   TextState
	view    View
	rev     uint64
	changes emitter

	// Set for KindAuthored only.
	author *AuthoredPost
}

// NewPost returns a reply post model.
func NewPost(data protocol.PostData) *Post {
	p := &Post{
		kind: KindPost,
		data: data,
		view: NopView{},
	}
	p.state.Line = lastLine(data.Body)
	return p
}

// NewOpeningPost returns the model of the first post of a thread.
func NewOpeningPost(t protocol.ThreadData) *Post {
	p := NewPost(t.PostData)
	p.kind = KindOpeningPost
	p.thread = &ThreadMeta{
		Board:     t.Board,
		Subject:   t.Subject,
		Sticky:    t.Sticky,
		Locked:    t.Locked,
		PostCtr:   t.PostCtr,
		ImageCtr:  t.ImageCtr,
		ReplyTime: t.ReplyTime,
		BumpTime:  t.BumpTime,
	}
	return p
}

// Kind returns the variant of the post.
func (p *Post) Kind() Kind { return p.kind }

// ID returns the post ID.
func (p *Post) ID() uint64 { return p.data.ID }

// Time returns the Unix creation time of the post.
func (p *Post) Time() int64 { return p.data.Time }

// Body returns the text of the post.
func (p *Post) Body() string { return p.data.Body }

// Editing reports whether the post is still open.
func (p *Post) Editing() bool { return p.data.Editing }

// Banned reports whether the post's author was banned for it.
func (p *Post) Banned() bool { return p.data.Banned }

// Deleted reports whether the post was deleted.
func (p *Post) Deleted() bool { return p.data.Deleted }

// Image returns the post's image or nil.
func (p *Post) Image() *protocol.Image { return p.data.Image }

// Links returns the posts this post links to.
func (p *Post) Links() protocol.Links { return p.data.Links }

// Data returns a copy of the post's data.
func (p *Post) Data() protocol.PostData { return p.data }

// Thread returns the thread metadata of an opening post, nil otherwise.
func (p *Post) Thread() *ThreadMeta { return p.thread }

// State returns the markup state of the open line.
func (p *Post) State() TextState {
	if p.author != nil {
		return p.author.input
	}
	return p.state
}

// Author returns the authoring state of a KindAuthored post, nil otherwise.
func (p *Post) Author() *AuthoredPost { return p.author }

// View returns the view attached to the post.
func (p *Post) View() View { return p.view }

// SetView attaches a view to the post. A nil view detaches it.
func (p *Post) SetView(v View) {
	if v == nil {
		v = NopView{}
	}
	p.view = v
}

// Revision is incremented by every mutation of the post. It lets
// asynchronous writers detect that the post changed under them.
func (p *Post) Revision() uint64 { return p.rev }

// OnChange subscribes fn to changes of field. The returned function
// cancels the subscription.
func (p *Post) OnChange(f Field, fn func(*Post)) func() {
	return p.changes.subscribe(f, fn)
}

func (p *Post) touch(fields ...Field) {
	p.rev++
	p.changes.emit(p, fields...)
}

// Append appends a character to the open line.
func (p *Post) Append(r rune) error {
	if !p.data.Editing {
		return ErrPostClosed
	}
	if p.kind == KindAuthored {
		p.author.echoAppend(r)
		p.touch(FieldBody)
		return nil
	}

	char := string(r)
	p.data.Body += char
	p.state.Line += char

	switch {
	case r == '\n':
		p.view.StartNewLine()
		p.state.reset()
		p.state.Line = ""
	case p.state.Line == ">":
		p.state.Quote = true
		p.view.ReparseLine()
	case strings.HasSuffix(p.state.Line, "**"):
		p.state.reset()
		p.view.ReparseLine()
	default:
		p.view.AppendString(char)
	}
	p.touch(FieldBody)
	return nil
}

// Backspace removes the last character of the body.
func (p *Post) Backspace() error {
	if !p.data.Editing {
		return ErrPostClosed
	}
	if p.data.Body == "" {
		return nil
	}
	if p.kind == KindAuthored {
		p.data.Body = dropLastRune(p.data.Body)
		p.touch(FieldBody)
		return nil
	}

	reparse := needsReparse(p.state.Line)
	p.data.Body = dropLastRune(p.data.Body)

	if p.state.Line == "" {
		// Removed a newline. The previous line is open again.
		p.state.Line = lastLine(p.data.Body)
		p.state.reset()
		p.view.RenderContents()
	} else {
		p.state.Line = dropLastRune(p.state.Line)
		if reparse {
			p.state.reset()
			p.view.ReparseLine()
		} else {
			p.view.Backspace()
		}
	}
	p.touch(FieldBody)
	return nil
}

// Splice replaces part of the open line.
func (p *Post) Splice(s edit.Splice) error {
	if !p.data.Editing {
		return ErrPostClosed
	}

	line := edit.ApplySplice(lastLine(p.data.Body), s)
	p.data.Body = replaceLastLine(p.data.Body, line)

	if p.kind == KindAuthored {
		p.touch(FieldBody)
		return nil
	}

	p.state.reset()
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		p.state.Line = line[i+1:]
		p.view.RenderContents()
	} else {
		p.state.Line = line
		p.view.ReparseLine()
	}
	p.touch(FieldBody)
	return nil
}

// Close closes an open post. Posts may be closed from several sources, so
// closing an already closed post does nothing and returns false.
func (p *Post) Close(links protocol.Links, commands []protocol.Command) bool {
	if !p.data.Editing {
		return false
	}
	p.data.Editing = false
	fields := []Field{FieldEditing}
	if links != nil {
		p.data.Links = links
		fields = append(fields, FieldLinks)
	}
	if commands != nil {
		p.data.Commands = commands
	}
	p.state = TextState{}
	if p.author != nil {
		p.author.closed()
	}
	p.view.ClosePost()
	p.touch(fields...)
	return true
}

// Extend overwrites the post with fresher data from the server and
// rerenders it.
func (p *Post) Extend(data protocol.PostData) {
	prev := p.data
	p.data = data
	if p.author != nil && prev.Editing && !data.Editing {
		p.author.closed()
	}

	p.state.reset()
	if data.Editing {
		p.state.Line = lastLine(data.Body)
	} else {
		p.state.Line = ""
	}
	p.view.RenderContents()

	fields := make([]Field, 0, 5)
	if prev.Body != data.Body {
		fields = append(fields, FieldBody)
	}
	if prev.Editing != data.Editing {
		fields = append(fields, FieldEditing)
	}
	if prev.Banned != data.Banned {
		fields = append(fields, FieldBanned)
	}
	if prev.Deleted != data.Deleted {
		fields = append(fields, FieldDeleted)
	}
	if (prev.Image == nil) != (data.Image == nil) {
		fields = append(fields, FieldImage)
	}
	p.touch(fields...)
}

// SetBanned marks the post as banned. Returns false if it already was.
func (p *Post) SetBanned() bool {
	if p.data.Banned {
		return false
	}
	p.data.Banned = true
	p.view.SetBanned()
	p.touch(FieldBanned)
	return true
}

// SetDeleted marks the post as deleted. Returns false if it already was.
func (p *Post) SetDeleted() bool {
	if p.data.Deleted {
		return false
	}
	p.data.Deleted = true
	p.view.SetDeleted()
	p.touch(FieldDeleted)
	return true
}

// InsertImage attaches an image to the post.
func (p *Post) InsertImage(img protocol.Image) {
	p.data.Image = &img
	p.view.RenderImage()
	p.touch(FieldImage)
}

// SpoilerImage spoilers the post's image. Returns false if there is no
// image or it already is spoilered.
func (p *Post) SpoilerImage() bool {
	if p.data.Image == nil || p.data.Image.Spoiler {
		return false
	}
	p.data.Image.Spoiler = true
	p.view.RenderImage()
	p.touch(FieldImage)
	return true
}

// RemoveImage removes the post's image. Returns false if there is none.
func (p *Post) RemoveImage() bool {
	if p.data.Image == nil {
		return false
	}
	p.data.Image = nil
	p.view.RemoveImage()
	p.touch(FieldImage)
	return true
}
