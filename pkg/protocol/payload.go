package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/livesync/pkg/edit"
)

// SyncRequest asks the server to synchronise the client to a board page or
// thread and subscribe it to the matching update feed. Thread is 0 on board
// index pages.
type SyncRequest struct {
	Board  string `json:"board"`
	Thread uint64 `json:"thread"`
}

// SyncData is the server's description of everything the client may have
// missed since it was last synchronised. Absent for board pages.
type SyncData struct {
	Recent       []uint64            `json:"recent"`       // Posts created within the last 15 minutes
	Open         map[uint64]OpenPost `json:"open"`         // Posts currently open
	Deleted      []uint64            `json:"deleted"`      // Posts deleted
	DeletedImage []uint64            `json:"deletedImage"` // Posts with deleted images
	Banned       []uint64            `json:"banned"`       // Posts banned
}

// OpenPost is the state of a post still being authored.
type OpenPost struct {
	HasImage bool   `json:"hasImage,omitempty"`
	Body     string `json:"body"`
}

// ReclaimRequest asks the server to hand back authorship of an open post
// after a reconnect.
type ReclaimRequest struct {
	ID       uint64 `json:"id"`
	Password string `json:"password"`
}

// ReclaimStatus is the server's reply to a ReclaimRequest.
type ReclaimStatus int

const (
	ReclaimOK     ReclaimStatus = 0 // Authorship restored
	ReclaimDenied ReclaimStatus = 1 // Post must be abandoned
)

// AppendMessage appends one character to an open post. Encoded as a
// [postID, charCode] tuple.
type AppendMessage struct {
	ID   uint64
	Char rune
}

// MarshalJSON encodes the message as a two element array.
func (m AppendMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{int64(m.ID), int64(m.Char)})
}

// UnmarshalJSON decodes a [postID, charCode] tuple.
func (m *AppendMessage) UnmarshalJSON(data []byte) error {
	var tuple []int64
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("protocol: append tuple has %d elements", len(tuple))
	}
	if tuple[0] < 0 || tuple[1] < 0 {
		return fmt.Errorf("protocol: negative value in append tuple")
	}
	m.ID = uint64(tuple[0])
	m.Char = rune(tuple[1])
	return nil
}

// SpliceMessage replaces part of the open line of a post.
type SpliceMessage struct {
	ID uint64 `json:"id"`
	edit.Splice
}

// CloseMessage closes an open post and carries its final links and hash
// command results.
type CloseMessage struct {
	ID       uint64    `json:"id"`
	Links    Links     `json:"links"`
	Commands []Command `json:"commands"`
}

// ImageMessage inserts an image into an existing post.
type ImageMessage struct {
	ID uint64 `json:"id"`
	Image
}

// PostRequest requests allocation of a new reply post.
type PostRequest struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
	Sage     bool   `json:"sage,omitempty"`
	Body     string `json:"body"`
}

// Links are pairs of [target post ID, target thread ID].
type Links [][2]uint64

// CommandType is the kind of a hash command result.
type CommandType uint8

const (
	CommandDice CommandType = iota
	CommandFlip
	CommandEightBall
	CommandSyncWatch
	CommandPyu
)

// Command is a single hash command result computed by the server.
type Command struct {
	Type CommandType     `json:"type"`
	Val  json.RawMessage `json:"val"`
}

// FileType is the type of an uploaded file.
type FileType uint8

const (
	FileJPEG FileType = iota
	FilePNG
	FileGIF
	FileWEBM
	FilePDF
	FileSVG
	FileMP4
	FileMP3
	FileOGG
)

// Image is the metadata of a file attached to a post.
type Image struct {
	APNG     bool      `json:"apng,omitempty"`
	Audio    bool      `json:"audio,omitempty"`
	Video    bool      `json:"video,omitempty"`
	Spoiler  bool      `json:"spoiler,omitempty"`
	FileType FileType  `json:"fileType"`
	Length   uint32    `json:"length,omitempty"`
	Size     int       `json:"size"`
	Dims     [4]uint16 `json:"dims"` // width, height, thumbnail width, thumbnail height
	MD5      string    `json:"MD5"`
	SHA1     string    `json:"SHA1"`
	Name     string    `json:"name"`
}

// PostData is a post as exposed by the server, either an OP or a reply.
type PostData struct {
	Editing  bool      `json:"editing,omitempty"`
	Banned   bool      `json:"banned,omitempty"`
	Deleted  bool      `json:"deleted,omitempty"`
	ID       uint64    `json:"id"`
	Time     int64     `json:"time"`
	Body     string    `json:"body"`
	Name     string    `json:"name,omitempty"`
	Trip     string    `json:"trip,omitempty"`
	Auth     string    `json:"auth,omitempty"`
	Links    Links     `json:"links,omitempty"`
	Commands []Command `json:"commands,omitempty"`
	Image    *Image    `json:"image,omitempty"`
}

// ThreadData is a thread with its opening post and contained replies.
type ThreadData struct {
	Sticky    bool   `json:"sticky,omitempty"`
	Locked    bool   `json:"locked,omitempty"`
	PostCtr   uint32 `json:"postCtr"`
	ImageCtr  uint32 `json:"imageCtr"`
	ReplyTime int64  `json:"replyTime"`
	BumpTime  int64  `json:"bumpTime"`
	Subject   string `json:"subject"`
	Board     string `json:"board"`
	PostData
	Posts []PostData `json:"posts"`
}
