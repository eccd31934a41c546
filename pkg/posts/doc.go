// Package posts holds the client-side models of the posts of a thread.
//
// There are three variants of a post, distinguished by Kind:
//
//   - KindPost: a reply written by someone else
//   - KindOpeningPost: the first post of a thread, carrying thread metadata
//   - KindAuthored: the post currently being written by this client
//
// All variants implement Editable. Remote edits (append, backspace, splice,
// close) received from the server are replayed onto the post body with the
// edit package. The authored variant additionally turns local input into
// edit operations through AuthoredPost.ParseInput and hands them to a Sender.
//
// Rendering is not part of this package. Views are attached through the
// Renderer, View and InputView interfaces, and other components observe
// models through OnChange subscriptions.
//
// Models are not safe for concurrent use. They are owned by the goroutine
// running the client event loop.
package posts
