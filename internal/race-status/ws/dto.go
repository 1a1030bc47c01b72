package ws

// ClientMsg é a mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	RaceID string `json:"raceId"` // requerido em subscribe/unsubscribe
}
