package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shadowchat/shadowchat/internal/stats"
	"github.com/shadowchat/shadowchat/internal/store"
)

// ErrRoomNotFound is returned on joins against a room whose metadata has
// expired or been burned.
var ErrRoomNotFound = errors.New("room expired or does not exist")

const DefaultRoomTTL = 3600 * time.Second

// RoomMetadata is the value stored under a room's meta key. Its existence, not
// its content, is what makes a room joinable.
type RoomMetadata struct {
	CreatedAt float64 `json:"created_at"`
}

// Gateway drives the room lifecycle: created by a mint request, active while
// the meta key lives, terminal once the key expires or a member burns it.
// There is no way back from terminal.
type Gateway struct {
	store    store.KeyStore
	registry *Registry
	log      *log.Logger
	stats    stats.StatsProvider
	roomTTL  time.Duration
}

func NewGateway(logger *log.Logger, ks store.KeyStore, reg *Registry, su stats.StatsProvider, roomTTL time.Duration) *Gateway {
	if roomTTL <= 0 {
		roomTTL = DefaultRoomTTL
	}

	g := &Gateway{
		store:    ks,
		registry: reg,
		log:      logger,
		stats:    su,
		roomTTL:  roomTTL,
	}

	g.stats.RegisterMetric("RoomsCreated")
	g.stats.RegisterMetric("RoomsBurned")
	g.stats.RegisterMetric("MessagesRelayed")
	g.stats.RegisterMetric("NumConnections")

	return g
}

func metaKey(token string) string {
	return fmt.Sprintf("room:%s:meta", token)
}

// CreateRoom mints an unguessable token and records the room's metadata with
// the configured TTL. Tokens are 128 random bits and are never reused.
func (g *Gateway) CreateRoom(ctx context.Context) (string, error) {
	token := uuid.NewString()

	meta, err := json.Marshal(RoomMetadata{CreatedAt: Now()})
	if err != nil {
		return "", fmt.Errorf("marshal room metadata: %w", err)
	}

	if err := g.store.Set(ctx, metaKey(token), string(meta), g.roomTTL); err != nil {
		return "", fmt.Errorf("store room metadata: %w", err)
	}

	g.stats.Incr("RoomsCreated")
	g.log.Printf("created room %q with ttl %s", token, g.roomTTL)
	return token, nil
}

// Join registers m in the room if the room is still alive. The existence check
// and the registration are not atomic: a burn racing a join can leave one late
// member registered in a dead room, which costs nothing beyond that member
// never hearing another message.
func (g *Gateway) Join(ctx context.Context, token string, m Member) error {
	ok, err := g.store.Exists(ctx, metaKey(token))
	if err != nil {
		return fmt.Errorf("check room %q: %w", token, err)
	}
	if !ok {
		return ErrRoomNotFound
	}

	g.registry.Join(token, m)
	return nil
}

// HandleMessage stamps the envelope and fans it out to the room's current
// membership, sender included. Existence is not re-checked per message; the
// join-time check is authoritative for the life of the session.
func (g *Gateway) HandleMessage(token string, env *ClientMessage) {
	n := g.registry.Broadcast(token, RelayMsg(env.Payload, env.Sender))
	g.stats.Incr("MessagesRelayed")
	g.log.Printf("relayed message to %d members of room %q", n, token)
}

// HandleBurn makes the room terminal and tells every member to wipe local
// state. Deleting an already-dead key is a no-op, so burns are idempotent.
// Members are notified but not forcibly evicted; they leave on disconnect.
func (g *Gateway) HandleBurn(ctx context.Context, token string) {
	if err := g.store.Delete(ctx, metaKey(token)); err != nil {
		g.log.Printf("delete metadata for room %q: %v", token, err)
	}

	n := g.registry.Broadcast(token, BurnAll())
	g.stats.Incr("RoomsBurned")
	g.log.Printf("burned room %q, notified %d members", token, n)
}

// Disconnect removes m from the room's membership. Room metadata is untouched:
// a room outlives any one member until it expires or burns.
func (g *Gateway) Disconnect(token string, m Member) {
	g.registry.Leave(token, m)
}
