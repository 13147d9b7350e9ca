package events

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config selects and configures a driver: none, log, kafka or mqtt.
type Config struct {
	Driver       string
	KafkaBrokers []string
	KafkaTopic   string
	MQTT         MQTTConfig
}

func New(cfg Config, logger zerolog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "log":
		return NewLogPublisher(logger), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka driver needs at least one broker")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "mqtt":
		return NewMQTTPublisher(cfg.MQTT)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
