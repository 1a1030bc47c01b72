package events

import "time"

// RaceEventKind identifica o momento do ciclo de vida da corrida
type RaceEventKind string

const (
	RaceClosed    RaceEventKind = "CLOSED"    // apostas encerradas ou resultado apurado
	RaceBroadcast RaceEventKind = "BROADCAST" // pagamentos creditados, resultado publicado
	RaceReset     RaceEventKind = "RESET"     // apuração desfeita antes do pagamento
)

// Evento publicado no tópico "race_events".
// Entrega não é exactly-once: consumidores tratam como dica para reler o estado.
type RaceEvent struct {
	Kind      RaceEventKind `json:"kind"`
	RaceID    string        `json:"raceId"`
	Timestamp time.Time     `json:"timestamp"`
}
