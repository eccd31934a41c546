package posts

// View renders a single post. Implementations are provided by the
// surrounding application.
type View interface {
	AppendString(s string)
	Backspace()
	ReparseLine()
	StartNewLine()
	ClosePost()
	RenderContents()
	RenderImage()
	SetBanned()
	SetDeleted()
	RemoveImage()
	Remove()
}

// InputView is the text input of the authored post.
type InputView interface {
	// TrimInput removes n characters from the end of the input field.
	TrimInput(n int)

	// StartNewLine terminates line and clears the input field.
	StartNewLine(line string)

	// InjectLines inserts terminated lines before the input field and sets
	// the field's contents to last.
	InjectLines(lines []string, last string)

	// TerminateLine replaces the n-th temporary line with its final markup.
	TerminateLine(n int, line string)

	// ReparseLine rerenders the markup of the line in the input field.
	ReparseLine(line string)
}

// Renderer creates the view of a post when it is added to a Collection.
type Renderer interface {
	Render(p *Post) View
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(p *Post) View

// Render calls f(p).
func (f RendererFunc) Render(p *Post) View {
	return f(p)
}

// NopView is a View that does nothing.
type NopView struct{}

func (NopView) AppendString(string) {}
func (NopView) Backspace()          {}
func (NopView) ReparseLine()        {}
func (NopView) StartNewLine()       {}
func (NopView) ClosePost()          {}
func (NopView) RenderContents()     {}
func (NopView) RenderImage()        {}
func (NopView) SetBanned()          {}
func (NopView) SetDeleted()         {}
func (NopView) RemoveImage()        {}
func (NopView) Remove()             {}

// NopInputView is an InputView that does nothing.
type NopInputView struct{}

func (NopInputView) TrimInput(int)                {}
func (NopInputView) StartNewLine(string)          {}
func (NopInputView) InjectLines([]string, string) {}
func (NopInputView) TerminateLine(int, string)    {}
func (NopInputView) ReparseLine(string)           {}
