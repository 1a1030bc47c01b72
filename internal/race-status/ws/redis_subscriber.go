package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal Redis Pub/Sub e repassa cada
// atualização de corrida aos clientes WebSocket inscritos
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}
				Relay(log, hub, []byte(msg.Payload))
			}
		}
	}()
}

// Relay decodifica um payload do canal e envia ao hub
func Relay(log *zap.Logger, hub *Hub, payload []byte) {
	var upd events.RaceUpdate
	if err := json.Unmarshal(payload, &upd); err != nil || upd.RaceID == "" {
		log.Warn("ws subscriber invalid payload", zap.Error(err))
		return
	}
	hub.Broadcast(upd)
}
