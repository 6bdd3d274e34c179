package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"buckeuchre/internal/auth"
	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
	"buckeuchre/internal/game"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Outbound buffer; slow consumers get dropped, not blocked on.
	sendBuffer = 256
)

// Connection wraps one websocket client. It implements game.Subscriber
// so the bound game actor can deliver events straight to the outbox.
type Connection struct {
	conn      *websocket.Conn
	send      chan OutboundMessage
	log       *log.Logger
	server    *Server
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	identity *auth.Identity
	gameID   string
	actor    *game.Actor
}

func newConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan OutboundMessage, sendBuffer),
		log:    server.log.WithPrefix("conn"),
		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// start begins the pumps. An already-validated identity (token passed
// as a query parameter) skips the AUTH handshake.
func (c *Connection) start(identity *auth.Identity) {
	if identity != nil {
		c.bindIdentity(identity)
	}
	go c.writePump()
	go c.readPump()
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if id := c.playerID(); id != "" {
			c.server.unregister(id, c)
			if actor := c.boundActor(); actor != nil {
				_ = actor.Disconnect(context.Background(), id)
			}
		}
		_ = c.conn.Close()
	})
}

// Deliver implements game.Subscriber. Best effort: a full buffer drops
// the event and the client reconciles via REQUEST_STATE.
func (c *Connection) Deliver(event game.Event) {
	c.mu.RLock()
	gameID := c.gameID
	c.mu.RUnlock()
	c.sendMessage(outboundFromEvent(gameID, event))
}

func (c *Connection) sendMessage(msg OutboundMessage) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.log.Warn("send buffer full, dropping event",
			"event", msg.Event, "player", c.playerID())
	}
}

func (c *Connection) sendError(gameID string, err error) {
	c.sendMessage(errorMessage(gameID, engine.CodeOf(err), err.Error()))
}

func (c *Connection) playerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return ""
	}
	return c.identity.PlayerID
}

func (c *Connection) boundActor() *game.Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actor
}

func (c *Connection) bindIdentity(identity *auth.Identity) {
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	c.server.register(identity.PlayerID, c)
	c.log = c.log.With("player", identity.PlayerID)
}

func (c *Connection) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket error", "err", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Error("failed to write message", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *InboundMessage) {
	if msg.Event == msgAuth {
		c.handleAuth(msg)
		return
	}
	id := c.playerID()
	if id == "" {
		c.sendMessage(errorMessage(msg.GameID, engine.CodeAuthentication, "authenticate first"))
		return
	}

	switch msg.Event {
	case msgJoinGame:
		c.handleJoinGame(id, msg)
	case msgPlaceBid, msgDeclareTrump, msgFoldDecision, msgPlayCard:
		c.handleAction(id, msg)
	case msgStartNextRound:
		c.withActor(msg, func(actor *game.Actor) error {
			return actor.StartNextRound(c.ctx, id)
		})
	case msgRequestState:
		c.handleRequestState(id, msg)
	case msgLeaveGame:
		c.handleLeaveGame(id, msg)
	default:
		c.sendMessage(errorMessage(msg.GameID, engine.CodeInvalidAction, "unknown event "+msg.Event))
	}
}

func (c *Connection) handleAuth(msg *InboundMessage) {
	if c.playerID() != "" {
		c.sendMessage(errorMessage("", engine.CodeInvalidAction, "already authenticated"))
		return
	}
	identity, err := c.server.validator.Validate(c.ctx, msg.Token)
	if err != nil {
		c.sendMessage(errorMessage("", engine.CodeAuthentication, "invalid token"))
		return
	}
	c.bindIdentity(identity)
	c.log.Info("client authenticated")
}

// handleJoinGame seats the player (a reconnect finds the existing
// seat) and subscribes this connection to the game's events
func (c *Connection) handleJoinGame(id string, msg *InboundMessage) {
	entry, err := c.server.lobby.Get(msg.GameID)
	if err != nil {
		c.sendError(msg.GameID, err)
		return
	}
	displayName := id
	c.mu.RLock()
	if c.identity != nil && c.identity.DisplayName != "" {
		displayName = c.identity.DisplayName
	}
	c.mu.RUnlock()

	if _, err := entry.Actor.Join(c.ctx, id, displayName, engine.SeatHuman); err != nil {
		c.sendError(msg.GameID, err)
		return
	}

	// Leaving a previously bound game before binding the new one.
	if prev := c.boundActor(); prev != nil && prev != entry.Actor {
		_ = prev.Disconnect(c.ctx, id)
	}

	c.mu.Lock()
	c.gameID = msg.GameID
	c.actor = entry.Actor
	c.mu.Unlock()

	if err := entry.Actor.Connect(c.ctx, id, c); err != nil {
		c.sendError(msg.GameID, err)
	}
}

func (c *Connection) handleAction(id string, msg *InboundMessage) {
	action, err := actionFromMessage(msg)
	if err != nil {
		c.sendMessage(errorMessage(msg.GameID, engine.CodeInvalidAction, err.Error()))
		return
	}
	c.withActor(msg, func(actor *game.Actor) error {
		return actor.Act(c.ctx, id, action)
	})
}

func (c *Connection) handleRequestState(id string, msg *InboundMessage) {
	c.withActor(msg, func(actor *game.Actor) error {
		snap, err := actor.Snapshot(c.ctx)
		if err != nil {
			return err
		}
		viewer := -1
		if p := snap.PlayerByID(id); p != nil {
			viewer = p.Position
		}
		c.sendMessage(OutboundMessage{
			Event:     string(game.EventGameState),
			GameID:    msg.GameID,
			GameState: game.Redact(snap, viewer),
		})
		return nil
	})
}

func (c *Connection) handleLeaveGame(id string, msg *InboundMessage) {
	c.withActor(msg, func(actor *game.Actor) error {
		_ = actor.Disconnect(c.ctx, id)
		err := actor.Leave(c.ctx, id)
		c.mu.Lock()
		if c.gameID == msg.GameID {
			c.gameID = ""
			c.actor = nil
		}
		c.mu.Unlock()
		return err
	})
}

// withActor resolves the target game and reports failures back to this
// client only
func (c *Connection) withActor(msg *InboundMessage, fn func(actor *game.Actor) error) {
	actor := c.boundActor()
	c.mu.RLock()
	bound := c.gameID
	c.mu.RUnlock()
	if actor == nil || bound != msg.GameID {
		entry, err := c.server.lobby.Get(msg.GameID)
		if err != nil {
			c.sendError(msg.GameID, err)
			return
		}
		actor = entry.Actor
	}
	if err := fn(actor); err != nil {
		c.sendError(msg.GameID, err)
	}
}

// actionFromMessage translates a gameplay event into an engine action
func actionFromMessage(msg *InboundMessage) (engine.Action, error) {
	switch msg.Event {
	case msgPlaceBid:
		amount, err := parseBidAmount(msg.Amount)
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionBid, Bid: amount}, nil
	case msgDeclareTrump:
		suit, err := deck.ParseSuit(msg.TrumpSuit)
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionTrump, Suit: suit}, nil
	case msgFoldDecision:
		if msg.Folded == nil {
			return engine.Action{}, errMissingField("folded")
		}
		return engine.Action{Type: engine.ActionFold, Fold: *msg.Folded}, nil
	case msgPlayCard:
		card, err := deck.ParseCard(msg.CardID)
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionCard, Card: card}, nil
	}
	return engine.Action{}, errMissingField("event")
}
