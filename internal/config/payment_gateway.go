package config

type PaymentConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Stripe   *StripeConfig `yaml:"stripe"`
	Currency string        `yaml:"currency"`
	MinTopUp float64       `yaml:"min_top_up"`
	MaxTopUp float64       `yaml:"max_top_up"`
}

type StripeConfig struct {
	PublishableKey string `yaml:"publishable_key"`
	SecretKey      string `yaml:"secret_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

func loadPaymentConfig() *PaymentConfig {
	stripeKey := getEnv("STRIPE_SECRET_KEY", "")
	return &PaymentConfig{
		Enabled: getEnvAsBool("PAYMENT_ENABLED", stripeKey != ""),
		Stripe: &StripeConfig{
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			SecretKey:      stripeKey,
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Currency: getEnv("PAYMENT_CURRENCY", "usd"),
		MinTopUp: getEnvAsFloat64("PAYMENT_MIN_TOP_UP", 5),
		MaxTopUp: getEnvAsFloat64("PAYMENT_MAX_TOP_UP", 500),
	}
}
