package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/scrimlabs/inhouse-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *session.Session
}

type GetRoom struct {
	Code  string
	Reply chan *session.Session
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the registry of room sessions. Rooms are independent; the hub only
// creates, hands out, and tears them down.
type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*session.Session
	archiver session.Archiver
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, archiver session.Archiver, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*session.Session),
		archiver: archiver,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if s := h.rooms[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.New(h.ctx, msg.Code, h.archiver, h.log)
				h.rooms[msg.Code] = s
				h.log.Info("room created", zap.String("room", msg.Code))
				msg.Reply <- s

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case RemoveRoom:
				if s := h.rooms[msg.Code]; s != nil {
					s.Inbox() <- session.Shutdown{}
					delete(h.rooms, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, s := range h.rooms {
		s.Inbox() <- session.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
