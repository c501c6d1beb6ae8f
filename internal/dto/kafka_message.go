package dto

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
)

type KafkaMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

type OrderStatusUpdate struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}
