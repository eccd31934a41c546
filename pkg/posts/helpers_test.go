package posts

import (
	"fmt"

	"github.com/vango-dev/livesync/pkg/protocol"
)

// recordView records the calls made to a View.
type recordView struct {
	calls []string
}

func (v *recordView) record(s string)        { v.calls = append(v.calls, s) }
func (v *recordView) AppendString(s string) { v.record("append:" + s) }
func (v *recordView) Backspace()            { v.record("backspace") }
func (v *recordView) ReparseLine()          { v.record("reparse") }
func (v *recordView) StartNewLine()         { v.record("newline") }
func (v *recordView) ClosePost()            { v.record("close") }
func (v *recordView) RenderContents()       { v.record("contents") }
func (v *recordView) RenderImage()          { v.record("image") }
func (v *recordView) SetBanned()            { v.record("banned") }
func (v *recordView) SetDeleted()           { v.record("deleted") }
func (v *recordView) RemoveImage()          { v.record("removeImage") }
func (v *recordView) Remove()               { v.record("remove") }

func (v *recordView) last() string {
	if len(v.calls) == 0 {
		return ""
	}
	return v.calls[len(v.calls)-1]
}

// recordInput records the calls made to an InputView.
type recordInput struct {
	calls []string
}

func (v *recordInput) TrimInput(n int) { v.calls = append(v.calls, fmt.Sprintf("trim:%d", n)) }
func (v *recordInput) StartNewLine(line string) {
	v.calls = append(v.calls, "newline:"+line)
}
func (v *recordInput) InjectLines(lines []string, last string) {
	v.calls = append(v.calls, fmt.Sprintf("inject:%q:%s", lines, last))
}
func (v *recordInput) TerminateLine(n int, line string) {
	v.calls = append(v.calls, fmt.Sprintf("terminate:%d:%s", n, line))
}
func (v *recordInput) ReparseLine(line string) { v.calls = append(v.calls, "reparse:"+line) }

// recordSender records encoded frames. While fail is set every send is
// rejected.
type recordSender struct {
	frames []string
	fail   bool
}

func (s *recordSender) Send(t protocol.MessageType, payload any) bool {
	raw, err := protocol.Encode(t, payload)
	if err != nil {
		panic(err)
	}
	if s.fail {
		return false
	}
	s.frames = append(s.frames, raw)
	return true
}

func (s *recordSender) SendEmpty(t protocol.MessageType) bool {
	if s.fail {
		return false
	}
	s.frames = append(s.frames, protocol.EncodeEmpty(t))
	return true
}
