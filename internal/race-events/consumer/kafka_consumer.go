package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// PayoutSource lê os rateios gravados (Postgres)
type PayoutSource interface {
	PayoutResults(ctx context.Context, raceID string) ([]events.PayoutSummary, error)
}

type PayoutCache interface {
	SetPayouts(ctx context.Context, raceID string, payouts []events.PayoutSummary) error
	Invalidate(ctx context.Context, raceID string) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome eventos de corrida do Kafka, atualiza o cache de rateios
// e repassa o evento para o canal Redis lido pelo WebSocket
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	DLQ         MessageWriter // mensagens que não decodificam; opcional
	Payouts     PayoutSource
	Cache       PayoutCache
	Broadcaster Broadcaster
	Channel     string

	OnConsumed  func(kind string) // métricas por tipo de evento
	OnCached    func()
	OnBroadcast func()
	OnError     func(string) // métricas por fase
}

// Run inicia o loop de consumo; termina quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; falhas de cache ou broadcast não interrompem o loop
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var ev events.RaceEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.RaceID == "" {
		p.Log.Warn("invalid race event", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m)
		return
	}
	if p.OnConsumed != nil {
		p.OnConsumed(string(ev.Kind))
	}

	update := events.RaceUpdate{RaceID: ev.RaceID, Kind: ev.Kind, Timestamp: ev.Timestamp}

	switch ev.Kind {
	case events.RaceReset:
		if err := p.Cache.Invalidate(ctx, ev.RaceID); err != nil {
			p.Log.Warn("redis invalidate failed", zap.String("race_id", ev.RaceID), zap.Error(err))
			p.fail("cache")
		}
	default:
		payouts, err := p.Payouts.PayoutResults(ctx, ev.RaceID)
		if err != nil {
			p.Log.Warn("load payout results failed", zap.String("race_id", ev.RaceID), zap.Error(err))
			p.fail("db_read")
			break
		}
		update.Payouts = payouts
		// CLOSED sem apuração ainda não tem rateio; não cacheia vazio
		if len(payouts) == 0 {
			break
		}
		if err := p.Cache.SetPayouts(ctx, ev.RaceID, payouts); err != nil {
			p.Log.Warn("redis set failed", zap.String("race_id", ev.RaceID), zap.Error(err))
			p.fail("cache")
		} else if p.OnCached != nil {
			p.OnCached()
		}
	}

	p.broadcast(ctx, update)
}

func (p *Processor) broadcast(ctx context.Context, u events.RaceUpdate) {
	if p.Broadcaster == nil {
		return
	}
	b, err := json.Marshal(u)
	if err != nil {
		p.fail("encode")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(ctx, p.Channel, b); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.String("race_id", u.RaceID), zap.Error(err))
		p.fail("broadcast")
		return
	}
	if p.OnBroadcast != nil {
		p.OnBroadcast()
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
