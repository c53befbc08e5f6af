package game

// outboxSize bounds per-client send buffering; a client that cannot keep
// up is dropped rather than stalling the scene loop.
const outboxSize = 64

// Client is one connected participant in a session. The transport layer
// drains Outbox and writes frames to the socket; the session loop is the
// only writer.
type Client struct {
	// Key uniquely identifies the connection, not the user; one user may
	// hold several connections.
	Key    string
	UserID int64

	outbox chan []byte
}

// NewClient creates a client with a buffered outbox.
func NewClient(key string, userID int64) *Client {
	return &Client{Key: key, UserID: userID, outbox: make(chan []byte, outboxSize)}
}

// Outbox returns the channel of frames to write to the connection.
// The channel is closed when the session drops the client.
func (c *Client) Outbox() <-chan []byte {
	return c.outbox
}

// deliver queues a frame, reporting false when the client is backed up.
func (c *Client) deliver(frame []byte) bool {
	select {
	case c.outbox <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	close(c.outbox)
}
