package config

import "time"

// RideConfig holds fare and dispatch parameters.
type RideConfig struct {
	BaseFare                float64       `yaml:"base_fare"`
	PerKilometer            float64       `yaml:"per_kilometer"`
	PriceStep               float64       `yaml:"price_step"`
	AverageSpeedKMH         float64       `yaml:"average_speed_kmh"`
	NearbyRadiusKM          float64       `yaml:"nearby_radius_km"`
	DefaultSettlementAmount float64       `yaml:"default_settlement_amount"`
	LocationUpdateInterval  time.Duration `yaml:"location_update_interval"`
	SettlementRetries       int           `yaml:"settlement_retries"`
}

func loadRideConfig() *RideConfig {
	return &RideConfig{
		BaseFare:                getEnvAsFloat64("RIDE_BASE_FARE", 5),
		PerKilometer:            getEnvAsFloat64("RIDE_PER_KM", 1.5),
		PriceStep:               getEnvAsFloat64("RIDE_PRICE_STEP", 0.5),
		AverageSpeedKMH:         getEnvAsFloat64("RIDE_AVERAGE_SPEED_KMH", 30),
		NearbyRadiusKM:          getEnvAsFloat64("RIDE_NEARBY_RADIUS_KM", 5),
		DefaultSettlementAmount: getEnvAsFloat64("RIDE_DEFAULT_SETTLEMENT_AMOUNT", 10),
		LocationUpdateInterval:  getEnvAsDuration("LOCATION_UPDATE_INTERVAL", time.Minute),
		SettlementRetries:       getEnvAsInt("RIDE_SETTLEMENT_RETRIES", 3),
	}
}
