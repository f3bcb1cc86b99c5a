package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatnslate/internal/domain"
	"chatnslate/internal/fanout"
	"chatnslate/internal/security"
	"chatnslate/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	// Browsers cannot set Authorization on websocket upgrades; the token
	// rides in as "bearer, <token>" subprotocols instead.
	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1]
		}
	}
	return ""
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// Authenticates via bearer token (Authorization header or
// Sec-WebSocket-Protocol), then dispatches client events:
//   - subscribe    -> attach a live fan-out subscription for a conversation
//   - unsubscribe  -> tear the subscription down
//   - message      -> create a message and notify all subscribers
//   - typing       -> forward a typing indicator to the other participant
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	profiles domain.ProfileRepository,
	participants domain.ParticipantRepository,
	msgSvc *service.MessageService,
	broker *fanout.Broker,
	allowedOrigins []string,
	log zerolog.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr := extractToken(r)
		if tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		userID, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		viewer, err := profiles.GetByID(ctx, userID)
		if err != nil || !viewer.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := newClient(conn)
		defer client.Close()

		if err := profiles.SetOnlineStatus(ctx, viewer.ID, true); err != nil {
			log.Warn().Err(err).Str("user_id", viewer.ID).Msg("ws: set online")
		}
		hub.Register(viewer.ID, client)
		hub.BroadcastAll(map[string]any{
			"type":     "user_online",
			"user_id":  viewer.ID,
			"username": viewer.Username,
		})

		// One live subscription per conversation per connection.
		subs := make(map[string]*fanout.Subscription)

		defer func() {
			for _, sub := range subs {
				sub.Close()
			}
			hub.Unregister(viewer.ID, client)
			if !hub.HasConnections(viewer.ID) {
				if err := profiles.SetOnlineStatus(context.Background(), viewer.ID, false); err != nil {
					log.Warn().Err(err).Str("user_id", viewer.ID).Msg("ws: set offline")
				}
				hub.BroadcastAll(map[string]any{
					"type":     "user_offline",
					"user_id":  viewer.ID,
					"username": viewer.Username,
				})
			}
		}()

		for {
			var payload map[string]any
			if err := conn.ReadJSON(&payload); err != nil {
				break
			}
			msgType, _ := payload["type"].(string)
			convID, _ := payload["conversation_id"].(string)

			switch msgType {

			case "subscribe":
				if convID == "" {
					sendError(client, "subscribe requires conversation_id")
					continue
				}
				ok, err := participants.IsParticipant(ctx, convID, viewer.ID)
				if err != nil || !ok {
					sendError(client, "not allowed for this conversation")
					continue
				}
				// Resubscribing to the same conversation tears the old
				// subscription down first so deliveries never interleave.
				if old, exists := subs[convID]; exists {
					old.Close()
				}
				sub := broker.Subscribe(convID, viewer)
				subs[convID] = sub
				go forwardDeliveries(client, sub)
				_ = client.WriteJSON(map[string]any{
					"type":            "subscribed",
					"conversation_id": convID,
				})

			case "unsubscribe":
				if sub, exists := subs[convID]; exists {
					sub.Close()
					delete(subs, convID)
				}

			case "message":
				text, _ := payload["text"].(string)
				if convID == "" || strings.TrimSpace(text) == "" {
					sendError(client, "message requires conversation_id and non-empty text")
					continue
				}
				if _, err := msgSvc.Send(ctx, convID, viewer.ID, text); err != nil {
					log.Warn().Err(err).Str("conversation_id", convID).Msg("ws: send message")
					sendError(client, "failed to send message")
				}

			case "typing":
				if convID == "" {
					continue
				}
				ids, err := participants.ListParticipantIDs(ctx, convID)
				if err != nil {
					continue
				}
				var others []string
				allowed := false
				for _, id := range ids {
					if id == viewer.ID {
						allowed = true
					} else {
						others = append(others, id)
					}
				}
				if !allowed {
					sendError(client, "not allowed for this conversation")
					continue
				}
				hub.BroadcastToUsers(others, map[string]any{
					"type":            "typing",
					"conversation_id": convID,
					"user_id":         viewer.ID,
					"username":        viewer.Username,
				})

			default:
				log.Debug().Str("event", msgType).Str("user_id", viewer.ID).Msg("ws: unknown event type")
			}
		}
	}
}

// forwardDeliveries pumps enriched fan-out deliveries to the client until the
// subscription closes. A write failure closes the connection; the read loop
// then unwinds and tears down all subscriptions.
func forwardDeliveries(client *Client, sub *fanout.Subscription) {
	for d := range sub.Events() {
		if err := client.WriteJSON(d); err != nil {
			client.Close()
			sub.Close()
			return
		}
	}
}

func sendError(client *Client, msg string) {
	_ = client.WriteJSON(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
