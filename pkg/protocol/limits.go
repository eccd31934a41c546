package protocol

// Limits shared with the server. Exceeding them on the client side desyncs the
// client from the server's view of a post.
const (
	// MaxBodyLength is the maximum number of characters (runes) in a post body.
	MaxBodyLength = 2000

	// MaxFrameSize bounds a single inbound transport message.
	MaxFrameSize = 1 << 20

	// MaxConcatDepth limits recursive expansion of concat frames.
	MaxConcatDepth = 8
)
