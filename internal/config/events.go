package config

import "time"

type EventsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	RideTopic     string        `yaml:"ride_topic"`
	LocationTopic string        `yaml:"location_topic"`
	BatchTimeout  time.Duration `yaml:"batch_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	RequiredAcks  int           `yaml:"required_acks"`
}

func loadEventsConfig() *EventsConfig {
	return &EventsConfig{
		Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
		Brokers:       getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		RideTopic:     getEnv("KAFKA_RIDE_TOPIC", "oustaa.ride-events"),
		LocationTopic: getEnv("KAFKA_LOCATION_TOPIC", "oustaa.driver-locations"),
		BatchTimeout:  getEnvAsDuration("KAFKA_BATCH_TIMEOUT", 50*time.Millisecond),
		WriteTimeout:  getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		RequiredAcks:  getEnvAsInt("KAFKA_REQUIRED_ACKS", 1),
	}
}
