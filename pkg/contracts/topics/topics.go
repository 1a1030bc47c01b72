package topics

const (
	// Corridas
	RaceEvents = "race_events"

	// DLQs
	RaceEventsDLQ = "race_events_dlq"

	// Canal Redis Pub/Sub consumido pelo race-status-service
	RaceStatusBroadcast = "race_status_broadcast"
)

// PayoutsCacheKey é a chave Redis dos rateios publicados de uma corrida
func PayoutsCacheKey(raceID string) string { return "race:payouts:" + raceID }
