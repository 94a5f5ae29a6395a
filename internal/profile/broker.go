// Package profile edits the user profile and fans edits out to open views.
package profile

import (
	"encoding/json"
	"slices"
	"sync"
)

// Update is published after a profile edit so headers can refresh.
type Update struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// viewBuffer is how many updates an open view may fall behind before it
// starts missing them.
const viewBuffer = 16

// Broker delivers profile updates to every view a user has open: the SSE
// stream, the websocket, other tabs.
type Broker struct {
	mu    sync.Mutex
	views map[int][]chan []byte
}

func NewBroker() *Broker {
	return &Broker{views: make(map[int][]chan []byte)}
}

// Subscribe opens a view of userID's updates. Each update arrives as JSON.
// cancel must be called when the view goes away; calling it twice is safe.
func (b *Broker) Subscribe(userID int) (updates <-chan []byte, cancel func()) {
	ch := make(chan []byte, viewBuffer)
	b.mu.Lock()
	b.views[userID] = append(b.views[userID], ch)
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.drop(userID, ch) })
	}
}

func (b *Broker) drop(userID int, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	views := slices.DeleteFunc(b.views[userID], func(c chan []byte) bool { return c == ch })
	if len(views) == 0 {
		delete(b.views, userID)
		return
	}
	b.views[userID] = views
}

// Publish hands u to the open views of u.UserID and returns how many took
// it. A view with a full buffer is skipped.
func (b *Broker) Publish(u Update) int {
	data, err := json.Marshal(u)
	if err != nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.views[u.UserID] {
		select {
		case ch <- data:
			delivered++
		default:
		}
	}
	return delivered
}

// Views reports how many views of userID are open.
func (b *Broker) Views(userID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.views[userID])
}
