package chat

import "time"

// Session captures one anonymous browsing session and owns its conversation log.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
