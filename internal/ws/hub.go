package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/emandor/kyc_service/internal/telemetry"
)

var (
	mu    sync.RWMutex
	rooms = map[string]map[*websocket.Conn]struct{}{}
)

type Action string

const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

type Room string

const (
	RoomFeed Room = "kyc.room.feed"
)

type Event string

const (
	EventDecision Event = "kyc.event.decided"
)

type PayloadEvent struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

type ClientMessage struct {
	Action Action `json:"action"`
	Room   string `json:"room"`
}

// DecisionSummary is what dashboards see of a verification. It carries no
// document text.
type DecisionSummary struct {
	RequestID     string  `json:"request_id"`
	FinalDecision string  `json:"final_decision"`
	MatchScore    float64 `json:"match_score"`
	District      string  `json:"district"`
	RiskLevel     string  `json:"risk_level"`
}

func HandleWS(c *websocket.Conn) {
	tlog := telemetry.Module("ws")
	tlog.Info().Msg("ws_connected")
	defer func() {
		// cleanup on disconnect
		mu.Lock()
		for room := range rooms {
			delete(rooms[room], c)
		}
		mu.Unlock()
		_ = c.Close()
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		var cm ClientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			continue
		}

		switch cm.Action {
		case ActionJoin:
			joinRoom(c, cm.Room)
		case ActionLeave:
			leaveRoom(c, cm.Room)
		}
	}
}

func joinRoom(c *websocket.Conn, room string) {
	if room == "" {
		return
	}
	mu.Lock()
	if rooms[room] == nil {
		rooms[room] = map[*websocket.Conn]struct{}{}
	}
	rooms[room][c] = struct{}{}
	mu.Unlock()
	log := telemetry.Module("ws")
	log.Debug().Str("room", room).Msg("ws_join")
}

func leaveRoom(c *websocket.Conn, room string) {
	if room == "" {
		return
	}
	mu.Lock()
	delete(rooms[room], c)
	mu.Unlock()
	log := telemetry.Module("ws")
	log.Debug().Str("room", room).Msg("ws_leave")
}

func Subscribers(room Room) int {
	mu.RLock()
	defer mu.RUnlock()
	return len(rooms[string(room)])
}

// BroadcastDecision pushes a completed verification to the feed room.
func BroadcastDecision(s DecisionSummary) {
	pl := PayloadEvent{Event: EventDecision, Data: s}

	mu.RLock()
	conns := make([]*websocket.Conn, 0, len(rooms[string(RoomFeed)]))
	for c := range rooms[string(RoomFeed)] {
		conns = append(conns, c)
	}
	mu.RUnlock()

	log := telemetry.Module("ws")
	for _, c := range conns {
		if err := c.WriteJSON(pl); err != nil {
			log.Warn().Err(err).Msg("ws_write_failed")
		}
	}
}
