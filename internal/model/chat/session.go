package chat

import "time"

// Session describes one live chat widget connection.
type Session struct {
	ConnectionID string    `json:"connectionId"`
	DisplayName  string    `json:"name,omitempty"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActive   time.Time `json:"lastActive"`
	CurrentPage  string    `json:"currentPage,omitempty"`
	Activity     string    `json:"activity,omitempty"`
}
