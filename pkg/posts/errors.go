package posts

import "errors"

var (
	// ErrInputLocked is returned by ParseInput while the authored post has no
	// server allocated ID or its connection is down.
	ErrInputLocked = errors.New("posts: input locked")

	// ErrSlotOccupied is returned when starting a post while another one is
	// still being authored.
	ErrSlotOccupied = errors.New("posts: another post is being authored")

	// ErrPostClosed is returned when editing a post that is no longer open.
	ErrPostClosed = errors.New("posts: post is closed")

	// ErrNotAllocated is returned when an operation needs the post ID the
	// server has not assigned yet.
	ErrNotAllocated = errors.New("posts: post not allocated")

	// ErrNotSent is returned by ParseInput when the edit could not be
	// written to the connection. The input is kept uncommitted.
	ErrNotSent = errors.New("posts: edit not sent")
)
