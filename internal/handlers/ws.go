// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/partydeck/internal/bus"
	"github.com/jason-s-yu/partydeck/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval    = 30 * time.Second
	pingTimeout     = 15 * time.Second
	writeTimeout    = 5 * time.Second
	defaultOutboxSz = 64
)

// Dispatcher runs inbound frames and cleans up after a connection leaves.
// *game.Engine satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID string, raw []byte)
	Disconnect(ctx context.Context, connID string)
}

// WSOptions configures the room socket.
type WSOptions struct {
	OriginPatterns []string
	OutboxSize     int
}

// wsClient is one socket's outbound side. Deliver never blocks: a full
// outbox drops the event.
type wsClient struct {
	id      string
	outChan chan bus.Event
	done    chan struct{}
	once    sync.Once
}

func newWSClient(id string, size int) *wsClient {
	if size <= 0 {
		size = defaultOutboxSz
	}
	return &wsClient{
		id:      id,
		outChan: make(chan bus.Event, size),
		done:    make(chan struct{}),
	}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Deliver(ev bus.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outChan <- ev:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// WSHandler upgrades the request and pumps frames between the socket and
// the dispatcher until either side goes away.
func WSHandler(logger *logrus.Logger, hub *bus.Hub, d Dispatcher, opts WSOptions) http.HandlerFunc {
	origins := opts.OriginPatterns
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		client := newWSClient(uuid.NewString(), opts.OutboxSize)
		hub.Register(client)
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		var readErr error
		// Runs even if a dispatch panics, so the connection never lingers
		// in a room. Departures go to the remaining members, never to us.
		defer func() {
			cancel()
			client.close()
			hub.Unregister(client.id)
			d.Disconnect(context.Background(), client.id)
			middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, readErr)
		}()

		go writePump(ctx, c, client, logger)
		readErr = readPump(ctx, c, client, d, logger)
	}
}

// readPump feeds text frames to the dispatcher. It returns the error that
// ended the connection, nil for a normal close.
func readPump(ctx context.Context, c *websocket.Conn, client *wsClient, d Dispatcher, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Debugf("conn %s: read error: %v (CloseStatus: %d)", client.id, err, status)
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("conn %s: received non-text message type %d", client.id, typ)
			c.Close(UnsupportedFrameError, "only JSON text frames are accepted")
			return nil
		}
		// Room operations run to completion even if the socket drops.
		d.Dispatch(context.WithoutCancel(ctx), client.id, msg)
	}
}

func writePump(ctx context.Context, c *websocket.Conn, client *wsClient, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case ev := <-client.outChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("conn %s: failed to marshal %s event: %v", client.id, ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: failed to write to websocket: %v", client.id, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: ping failed: %v. Assuming disconnect.", client.id, err)
				_ = c.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
