package appwrite

import (
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
)

const (
	messageTypeConnected = "connected"
	messageTypeEvent     = "event"
	messageTypeError     = "error"
	messageTypePong      = "pong"
)

type realtimeMessage struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

type realtimeEvent struct {
	Events   []string `json:"events"`
	Channels []string `json:"channels"`
	Payload  document `json:"payload"`
}

type realtimeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var pingMessage = []byte(`{"type":"ping"}`)

// pongWait is how many ping intervals may pass without any message from the
// server before the socket is considered dead.
const pongWait = 2

func (c *Client) channelName(collection string) string {
	return fmt.Sprintf("databases.%s.collections.%s.documents", c.cfg.DatabaseID, collection)
}

func (c *Client) realtimeURL(collection string) string {
	u := *c.endpoint
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/realtime"
	u.RawQuery = url.Values{
		"project":    {c.cfg.ProjectID},
		"channels[]": {c.channelName(collection)},
	}.Encode()
	return u.String()
}

// SubscribeToInserts opens the realtime socket on the collection channel. The
// handshake carries the session cookie from the client's jar.
func (c *Client) SubscribeToInserts(ctx context.Context, collection string) (contract.Subscription, error) {
	dialer := &websocket.Dialer{
		Jar:              c.http.Jar,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, c.realtimeURL(collection), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: realtime handshake %s: %v", errors.ErrUnreachable, resp.Status, err)
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrUnreachable, err)
	}

	s := &subscription{
		log:          c.log,
		conn:         conn,
		channel:      c.channelName(collection),
		pingInterval: c.cfg.PingInterval,
		readTimeout:  pongWait * c.cfg.PingInterval,
		events:       make(chan chat.Message, c.cfg.BufferSize),
		close:        make(chan struct{}),
		readLoopDone: make(chan struct{}),
	}
	go s.readLoop()
	go s.writeLoop()
	context.AfterFunc(ctx, func() { _ = s.Close() })
	return s, nil
}

// subscription is one realtime socket. Only writeLoop writes to the socket,
// only readLoop sends on events.
type subscription struct {
	log          *slog.Logger
	conn         *websocket.Conn
	channel      string
	pingInterval time.Duration
	readTimeout  time.Duration
	events       chan chat.Message
	close        chan struct{}
	readLoopDone chan struct{}
	closeOnce    sync.Once

	mu  sync.Mutex
	err error
}

func (s *subscription) Events() <-chan chat.Message {
	return s.events
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close shuts the socket down and waits for the read loop to stop.
func (s *subscription) Close() error {
	s.beginClosing()
	<-s.readLoopDone
	return nil
}

func (s *subscription) beginClosing() {
	s.closeOnce.Do(func() {
		close(s.close)
	})
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.beginClosing()
}

func (s *subscription) closing() bool {
	select {
	case <-s.close:
		return true
	default:
		return false
	}
}

func (s *subscription) readLoop() {
	defer close(s.readLoopDone)
	defer close(s.events)

	for {
		// every pong or event extends the deadline
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		_, p, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing() {
				s.fail(fmt.Errorf("%w: %v", errors.ErrChannelClosed, pkgerrors.Wrap(err, "websocket read error")))
			}
			return
		}
		if !s.handleMessage(p) {
			return
		}
	}
}

// handleMessage reports whether reading should go on.
func (s *subscription) handleMessage(data []byte) bool {
	var msg realtimeMessage
	if err := jsoniter.Unmarshal(data, &msg); err != nil {
		s.log.Debug("Malformed realtime message received", "error", err)
		return true
	}

	switch msg.Type {
	case messageTypeEvent:
		var evt realtimeEvent
		if err := jsoniter.Unmarshal(msg.Data, &evt); err != nil {
			s.log.Debug("Malformed realtime event received", "error", err)
			return true
		}
		if !s.isInsert(evt) {
			return true
		}
		select {
		case s.events <- evt.Payload.message():
			return true
		case <-s.close:
			return false
		}
	case messageTypeError:
		var rtErr realtimeError
		_ = jsoniter.Unmarshal(msg.Data, &rtErr)
		s.fail(fmt.Errorf("%w: realtime error %d: %s", errors.ErrChannelClosed, rtErr.Code, rtErr.Message))
		return false
	case messageTypeConnected:
		s.log.Debug("Realtime channel connected", "channel", s.channel)
	case messageTypePong:
	default:
		s.log.Debug("Unknown realtime message type received", "type", msg.Type)
	}
	return true
}

func (s *subscription) isInsert(evt realtimeEvent) bool {
	onChannel := false
	for _, channel := range evt.Channels {
		if channel == s.channel {
			onChannel = true
			break
		}
	}
	if !onChannel {
		return false
	}
	for _, name := range evt.Events {
		if strings.HasSuffix(name, ".create") {
			return true
		}
	}
	return false
}

func (s *subscription) writeLoop() {
	defer s.conn.Close()

	heartbeat := time.NewTicker(s.pingInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-heartbeat.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, pingMessage); err != nil {
				s.fail(fmt.Errorf("%w: %v", errors.ErrChannelClosed, pkgerrors.Wrap(err, "websocket write error")))
				return
			}
		case <-s.close:
			_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"))
			return
		}
	}
}
