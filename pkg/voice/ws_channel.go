package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512 * 1024
	wsSendBuffer     = 64
)

// setupMessage opens the session: audio response format, voice
// selection, and the persona instruction text.
type setupMessage struct {
	Setup struct {
		Voice          string `json:"voice"`
		Instructions   string `json:"instructions"`
		ResponseFormat string `json:"response_format"`
	} `json:"setup"`
}

// clientAudioMessage carries one outbound encoded chunk.
type clientAudioMessage struct {
	Audio struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"audio"`
}

// serverMessage is the inbound wire shape. Audio is transport-encoded
// PCM; Interrupted flags barge-in; Error carries a remote fault.
type serverMessage struct {
	Audio       string `json:"audio,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WSDialer opens websocket channels to the agent service.
type WSDialer struct{}

// Dial connects, sends the setup message, and starts the pumps. A
// successful dial plus setup write is the whole handshake; the server
// acknowledges nothing further, so OpenEvent is emitted right away.
func (WSDialer) Dial(ctx context.Context, cfg SessionConfig) (RemoteChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelDial, err)
	}

	var setup setupMessage
	setup.Setup.Voice = cfg.Voice
	setup.Setup.Instructions = cfg.Persona
	setup.Setup.ResponseFormat = cfg.ResponseFormat

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: setup write: %v", ErrSetupRejected, err)
	}

	ch := &WSChannel{
		conn:   conn,
		events: make(chan Event, wsSendBuffer),
		send:   make(chan clientAudioMessage, wsSendBuffer),
		done:   make(chan struct{}),
	}
	go ch.readPump()
	go ch.writePump()

	ch.events <- OpenEvent{}
	log.Debug("Remote channel open", "url", cfg.ServerURL, "voice", cfg.Voice)
	return ch, nil
}

// WSChannel implements RemoteChannel over a websocket connection. All
// writes funnel through a single goroutine so send order matches
// submission order.
type WSChannel struct {
	conn   *websocket.Conn
	events chan Event
	send   chan clientAudioMessage
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Events returns the ordered inbound event stream.
func (c *WSChannel) Events() <-chan Event {
	return c.events
}

// SendAudio queues a chunk for the write pump. The caller never blocks
// on the network; a full buffer drops the chunk.
func (c *WSChannel) SendAudio(chunk EncodedChunk) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.mu.Unlock()

	var msg clientAudioMessage
	msg.Audio.MimeType = chunk.MimeType
	msg.Audio.Data = base64.StdEncoding.EncodeToString(chunk.Data)

	select {
	case c.send <- msg:
		return nil
	default:
		log.Warn("Channel send buffer full, dropping chunk")
		return nil
	}
}

// Close tears the connection down once; later calls are no-ops.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	return c.conn.Close()
}

// readPump turns inbound frames into events. It owns the events
// channel and closes it after the terminal event.
func (c *WSChannel) readPump() {
	defer func() {
		_ = c.Close()
		close(c.events)
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if isExpectedClose(err) || c.isClosed() {
				c.emit(CloseEvent{})
			} else {
				c.emit(ErrorEvent{Err: err})
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Debug("Dropping unparseable server message", "error", err)
			continue
		}
		if msg.Error != "" {
			c.emit(ErrorEvent{Err: fmt.Errorf("remote error: %s", msg.Error)})
			return
		}
		c.emit(MessageEvent{Audio: msg.Audio, Interrupted: msg.Interrupted})
	}
}

// writePump is the single writer: audio messages and pings, in order.
func (c *WSChannel) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Debug("Channel write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSChannel) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-time.After(wsWriteWait):
		log.Warn("Event consumer stalled, dropping event")
	}
}

func (c *WSChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func isExpectedClose(err error) bool {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, context.Canceled)
}
