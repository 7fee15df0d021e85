// Package handlers wires HTTP and WebSocket endpoints to the game server.
package handlers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/auth"
	"github.com/wordrush/wordrush/internal/database"
	"github.com/wordrush/wordrush/internal/game"
	"github.com/wordrush/wordrush/internal/middleware"
	"github.com/wordrush/wordrush/internal/protocol"
)

// outboxSize bounds the per-connection send queue. A client that cannot
// drain this many frames starts losing them.
const outboxSize = 64

// readLimit is the transport-level frame cap. The protocol's much smaller
// per-message cap is enforced in readMessages, where an oversize payload
// is dropped without failing the connection.
const readLimit = 32 << 10

// originPatterns restricts websocket origins to the public frontend when
// one is configured.
func originPatterns() []string {
	if origin := os.Getenv("PUBLIC_FRONTEND"); origin != "" {
		return []string{origin}
	}
	return []string{"*"}
}

// RoomWSHandler upgrades the connection and attaches it to the room named
// in the path (/rooms/{room}). Handshake failures are reported to the
// client as a close frame with an explanatory reason.
func RoomWSHandler(logger *logrus.Logger, srv *game.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomName := strings.TrimPrefix(r.URL.Path, "/rooms/")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns(),
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %q: %v", roomName, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")
		middleware.LogWebSocketConnect(logger, r)

		if !game.ValidateRoomName(roomName) {
			c.Close(websocket.StatusPolicyViolation, "invalid room name")
			return
		}
		username := r.URL.Query().Get("username")
		if !game.ValidateUsername(username) {
			c.Close(websocket.StatusPolicyViolation, "invalid username")
			return
		}

		params := game.ConnectParams{Username: username}
		resolveAccount(r, &params)
		if raw := r.URL.Query().Get("rejoin_token"); raw != "" {
			token, err := uuid.Parse(raw)
			if err != nil {
				c.Close(websocket.StatusPolicyViolation, "invalid rejoin token")
				return
			}
			params.RejoinToken = &token
		}

		c.SetReadLimit(readLimit)

		socketID := uuid.New()
		out := make(chan game.Outbound, outboxSize)
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// The writer owns the socket's outbound side; when it exits (close
		// directive or write failure) the reader is cancelled too.
		go func() {
			writePump(ctx, c, out)
			cancel()
		}()

		id, err := srv.AddClient(roomName, params, socketID, out)
		if err != nil {
			c.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}

		readErr := readMessages(ctx, c, srv, game.SenderInfo{UUID: id, Room: roomName}, out, logger)
		middleware.LogWebSocketDisconnect(logger, r, readErr)
		cancel()

		if err := srv.RemoveClient(roomName, id, socketID); err != nil {
			// A reconnect may have displaced this socket already.
			logger.WithError(err).Debugf("removing %s from room %q", id, roomName)
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// resolveAccount applies an optional session cookie: a valid session
// attaches the account id and takes the account's username over the
// guest one. Anything short of a valid session leaves params untouched.
func resolveAccount(r *http.Request, params *game.ConnectParams) {
	if database.DB == nil {
		return
	}
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return
	}
	sub, err := auth.AuthenticateJWT(cookie.Value)
	if err != nil {
		return
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return
	}
	user, err := database.GetUserByID(r.Context(), id)
	if err != nil {
		return
	}
	params.Account = &id
	if game.ValidateUsername(user.Username) {
		params.Username = user.Username
	}
}

func writePump(ctx context.Context, c *websocket.Conn, out <-chan game.Outbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-out:
			if f.Close != nil {
				c.Close(f.Close.Code, f.Close.Reason)
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, f.Data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// readMessages pumps inbound frames into the dispatcher until the
// connection drops. A normal closure returns nil.
func readMessages(ctx context.Context, c *websocket.Conn, srv *game.Server, info game.SenderInfo, out chan<- game.Outbound, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}
		if len(data) > protocol.MaxMessageSize {
			logger.Warnf("dropping oversize frame (%d bytes) from %s in room %q", len(data), info.UUID, info.Room)
			continue
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			logger.WithError(err).Warnf("bad frame from %s in room %q", info.UUID, info.Room)
			if frame, encErr := protocol.EncodeServerMessage(protocol.ErrorMessage{Content: "server error: invalid message"}); encErr == nil {
				select {
				case out <- game.Outbound{Data: frame}:
				default:
				}
			}
			continue
		}
		srv.HandleMessage(info, msg)
	}
}
