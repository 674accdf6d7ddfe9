package view

// Topics pushed to live dashboard clients.
const (
	TopicAlerts  = "alerts"
	TopicRiskMap = "risk_map"
	TopicSensors = "sensors"
)

// Publisher receives a view's rendered state whenever it changes. Implementations
// must not block.
type Publisher interface {
	Publish(topic string, payload any)
}
