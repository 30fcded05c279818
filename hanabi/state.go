package hanabi

// State is the transport's view of the connection: Connected tracks the
// socket, Joined tracks confirmed room membership. Domain messages are
// queued until Joined is true.
type State struct {
	Connected   bool
	Joined      bool
	OnlineCount int
	RoomID      string
}
