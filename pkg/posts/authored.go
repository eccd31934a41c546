package posts

import (
	"strings"
	"unicode/utf8"

	"github.com/vango-dev/livesync/pkg/edit"
	"github.com/vango-dev/livesync/pkg/protocol"
)

// Sender transmits frames to the server. The methods report whether the
// frame was written to the connection; that is not an acknowledgement.
type Sender interface {
	Send(t protocol.MessageType, payload any) bool
	SendEmpty(t protocol.MessageType) bool
}

// Status is the lifecycle stage of an authored post.
type Status uint8

const (
	StatusDraft     Status = iota // Waiting for the server to allocate an ID
	StatusAllocated               // Open, input is committed to the server
	StatusHalted                  // Connection lost, waiting for reclaim
	StatusClosed                  // Closed or abandoned
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusAllocated:
		return "allocated"
	case StatusHalted:
		return "halted"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AuthorOptions configures a new authored post.
type AuthorOptions struct {
	Name     string
	Password string
	Sage     bool

	// MaxLength is the body length limit in characters. Defaults to
	// protocol.MaxBodyLength.
	MaxLength int
}

// AuthoredPost is the post this client is writing. It turns the contents of
// the input field into edit operations and tracks how many characters have
// been committed to the server.
//
// The committed body of the post follows the server's echo of the sent
// operations, while the input line is updated as soon as an operation is
// sent.
type AuthoredPost struct {
	sender Sender
	view   InputView
	opts   AuthorOptions
	status Status
	post   *Post

	// Number of characters sent to the server. Must match the server's view
	// of the body or the length limit desyncs.
	bodyLength int

	// Number of lines terminated by the server's echo.
	parsedLines int

	input TextState
}

// NewAuthoredPost returns a draft post. view may be nil.
func NewAuthoredPost(sender Sender, view InputView, opts AuthorOptions) *AuthoredPost {
	if view == nil {
		view = NopInputView{}
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = protocol.MaxBodyLength
	}
	return &AuthoredPost{
		sender: sender,
		view:   view,
		opts:   opts,
	}
}

// Request returns the post creation request for the draft.
func (a *AuthoredPost) Request() protocol.PostRequest {
	return protocol.PostRequest{
		Name:     a.opts.Name,
		Password: a.opts.Password,
		Sage:     a.opts.Sage,
	}
}

// Password returns the password used to reclaim the post.
func (a *AuthoredPost) Password() string { return a.opts.Password }

// Status returns the lifecycle stage of the post.
func (a *AuthoredPost) Status() Status { return a.status }

// Active reports whether the post still occupies the authoring slot.
func (a *AuthoredPost) Active() bool { return a.status != StatusClosed }

// Post returns the post model, nil before allocation.
func (a *AuthoredPost) Post() *Post { return a.post }

// BodyLength returns the number of characters committed to the server.
func (a *AuthoredPost) BodyLength() int { return a.bodyLength }

// Line returns the contents of the input line.
func (a *AuthoredPost) Line() string { return a.input.Line }

// Allocate turns the draft into an open post with the ID assigned by the
// server and returns its model.
func (a *AuthoredPost) Allocate(id uint64, time int64) (*Post, error) {
	if a.status != StatusDraft {
		return nil, ErrPostClosed
	}
	a.post = &Post{
		kind: KindAuthored,
		data: protocol.PostData{
			ID:      id,
			Time:    time,
			Name:    a.opts.Name,
			Editing: true,
		},
		view:   NopView{},
		author: a,
	}
	a.status = StatusAllocated
	a.bodyLength = 0
	a.parsedLines = 0
	a.input = TextState{}
	return a.post, nil
}

// Halt locks the input while the connection is down.
func (a *AuthoredPost) Halt() {
	if a.status == StatusAllocated {
		a.status = StatusHalted
	}
}

// Resume unlocks the input after the server handed back authorship.
func (a *AuthoredPost) Resume() {
	if a.status == StatusHalted {
		a.status = StatusAllocated
	}
}

// Abandon closes the post locally without notifying the server.
func (a *AuthoredPost) Abandon() {
	if a.status == StatusClosed {
		return
	}
	if a.post != nil {
		a.post.Close(nil, nil)
	}
	a.status = StatusClosed
}

// CommitClose closes the post and, if it is open on the server, sends the
// close request. Closing an already closed post does nothing and returns
// false.
func (a *AuthoredPost) CommitClose() bool {
	switch a.status {
	case StatusClosed:
		return false
	case StatusAllocated:
		a.sender.SendEmpty(protocol.MessageClosePost)
	}
	if a.post != nil {
		a.post.Close(nil, nil)
	}
	a.status = StatusClosed
	return true
}

// closed is called when the model was closed by the server.
func (a *AuthoredPost) closed() {
	a.status = StatusClosed
	a.input = TextState{}
}

// ParseInput compares the new contents of the input line to the previous
// ones and commits the difference to the server. Input exceeding the body
// length limit is trimmed from the input field and not sent.
//
// If the operation could not be written, ErrNotSent is returned and the
// committed state is left unchanged, so the next call sends the difference
// again.
func (a *AuthoredPost) ParseInput(val string) error {
	if a.status != StatusAllocated {
		return ErrInputLocked
	}

	old := a.input.Line
	for {
		n := utf8.RuneCountInString(val)
		lenDiff := n - utf8.RuneCountInString(old)
		exceeding := a.bodyLength + lenDiff - a.opts.MaxLength
		if exceeding <= 0 {
			if !a.commit(val, edit.Compute(old, val), lenDiff) {
				return ErrNotSent
			}
			return nil
		}
		if exceeding > n {
			exceeding = n
		}
		a.view.TrimInput(exceeding)
		val = string([]rune(val)[:n-exceeding])
	}
}

// commit sends op and then updates the committed state. Nothing changes
// when the send fails.
func (a *AuthoredPost) commit(val string, op edit.Operation, lenDiff int) bool {
	switch op.Kind {
	case edit.KindAppend:
		return a.commitChar(op.Char)
	case edit.KindBackspace:
		return a.commitBackspace()
	case edit.KindSplice:
		return a.commitSplice(val, op.Splice, lenDiff)
	}
	return true
}

func (a *AuthoredPost) commitChar(r rune) bool {
	if !a.sender.Send(protocol.MessageAppend, int(r)) {
		return false
	}
	a.bodyLength++
	if r == '\n' {
		line := a.input.Line
		a.input = TextState{}
		a.view.StartNewLine(line)
	} else {
		a.input.Line += string(r)
		a.reparseMarkup()
	}
	return true
}

func (a *AuthoredPost) commitBackspace() bool {
	if !a.sender.SendEmpty(protocol.MessageBackspace) {
		return false
	}
	reparse := needsReparse(a.input.Line)
	a.input.Line = dropLastRune(a.input.Line)
	a.bodyLength--
	if reparse {
		a.input.reset()
		a.view.ReparseLine(a.input.Line)
	}
	return true
}

func (a *AuthoredPost) commitSplice(val string, s edit.Splice, lenDiff int) bool {
	if !a.sender.Send(protocol.MessageSplice, s) {
		return false
	}
	a.bodyLength += lenDiff
	a.input.reset()

	if i := strings.LastIndexByte(val, '\n'); i >= 0 {
		a.input.Line = val[i+1:]
		a.view.InjectLines(strings.Split(val[:i], "\n"), a.input.Line)
		return true
	}
	a.input.Line = val
	a.view.ReparseLine(val)
	return true
}

// reparseMarkup updates the quote and spoiler state of the input line after
// a character was appended.
func (a *AuthoredPost) reparseMarkup() {
	switch line := a.input.Line; {
	case line == ">":
		a.input.Quote = true
		a.view.ReparseLine(line)
	case strings.HasSuffix(line, "**"):
		a.input.Spoiler = !a.input.Spoiler
		a.view.ReparseLine(line)
	}
}

// echoAppend applies the server's echo of an appended character.
func (a *AuthoredPost) echoAppend(r rune) {
	if r == '\n' {
		a.view.TerminateLine(a.parsedLines, lastLine(a.post.data.Body))
		a.parsedLines++
	}
	a.post.data.Body += string(r)
}
