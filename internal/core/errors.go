package core

// Error codes surfaced to the offending connection. They never leak to
// other sessions or rooms.
const (
	ErrCodeBadMessage         = "BAD_MESSAGE"
	ErrCodeUnsupportedMessage = "UNSUPPORTED_MESSAGE"
	ErrCodeRoomIDRequired     = "ROOM_ID_REQUIRED"
	ErrCodeUserIDRequired     = "USER_ID_REQUIRED"
	ErrCodeRoomFull           = "ROOM_FULL"
	ErrCodeNotJoined          = "NOT_JOINED"
	ErrCodeRoomNotFound       = "ROOM_NOT_FOUND"
	ErrCodeEmptyDanmaku       = "EMPTY_DANMAKU"
)

// HubError wraps a code and human-readable message.
type HubError struct {
	Code    string
	Message string
}

func (e *HubError) Error() string {
	return e.Message
}

func hubError(code, msg string) *HubError {
	return &HubError{Code: code, Message: msg}
}
