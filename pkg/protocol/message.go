package protocol

import "strconv"

// MessageType identifies the kind of a frame. The numeric values are a
// compatibility contract with the server and must not change.
type MessageType uint8

const (
	MessageInvalid MessageType = 0 // Fatal error, payload is the reason

	// 1 - 29 modify post model state
	MessageInsertThread MessageType = 1
	MessageInsertPost   MessageType = 2
	MessageAppend       MessageType = 3
	MessageBackspace    MessageType = 4
	MessageSplice       MessageType = 5
	MessageClosePost    MessageType = 6
	MessageLink         MessageType = 7
	MessageInsertImage  MessageType = 8
	MessageSpoiler      MessageType = 9
	MessageDeletePost   MessageType = 10
	MessageBanned       MessageType = 11
	MessageDeleteImage  MessageType = 12

	// >= 30 are miscellaneous and do not write to post models
	MessageSynchronise  MessageType = 30
	MessageReclaim      MessageType = 31
	MessagePostID       MessageType = 32
	MessageConcat       MessageType = 33
	MessageNOOP         MessageType = 34
	MessageSyncCount    MessageType = 35
	MessageServerTime   MessageType = 36
	MessageRedirect     MessageType = 37
	MessageNotification MessageType = 38
)

// MaxMessageType is the largest type code representable in two digits.
const MaxMessageType MessageType = 99

var messageNames = map[MessageType]string{
	MessageInvalid:      "Invalid",
	MessageInsertThread: "InsertThread",
	MessageInsertPost:   "InsertPost",
	MessageAppend:       "Append",
	MessageBackspace:    "Backspace",
	MessageSplice:       "Splice",
	MessageClosePost:    "ClosePost",
	MessageLink:         "Link",
	MessageInsertImage:  "InsertImage",
	MessageSpoiler:      "Spoiler",
	MessageDeletePost:   "DeletePost",
	MessageBanned:       "Banned",
	MessageDeleteImage:  "DeleteImage",
	MessageSynchronise:  "Synchronise",
	MessageReclaim:      "Reclaim",
	MessagePostID:       "PostID",
	MessageConcat:       "Concat",
	MessageNOOP:         "NOOP",
	MessageSyncCount:    "SyncCount",
	MessageServerTime:   "ServerTime",
	MessageRedirect:     "Redirect",
	MessageNotification: "Notification",
}

// String returns the string representation of the message type.
func (t MessageType) String() string {
	if name, ok := messageNames[t]; ok {
		return name
	}
	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// ModifiesPost reports whether messages of this type write to post models.
func (t MessageType) ModifiesPost() bool {
	return t > MessageInvalid && t < MessageSynchronise
}
