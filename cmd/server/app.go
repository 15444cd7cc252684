package main

import (
	"context"
	"errors"
	"fmt"

	"oustaa/internal/config"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/repositories/memory"
	"oustaa/internal/repositories/mongodb"
	"oustaa/internal/repositories/redisrepo"
	"oustaa/pkg/cache"
	"oustaa/pkg/database"
	"oustaa/pkg/events"
	"oustaa/pkg/llm"
	"oustaa/pkg/logger"
	"oustaa/pkg/maps"
	"oustaa/pkg/payment"
	"oustaa/pkg/storage"
)

// infrastructure holds the external clients a process owns and must close.
type infrastructure struct {
	mongo     *database.MongoDB
	redis     *cache.RedisCache
	broker    cache.Broker
	cache     cache.Cache
	publisher events.Publisher
}

type repositories struct {
	profiles      interfaces.ProfileRepository
	rides         interfaces.RideRepository
	transactions  interfaces.TransactionRepository
	ratings       interfaces.RatingRepository
	messages      interfaces.RideMessageRepository
	conversations interfaces.ConversationRepository
	transactor    interfaces.Transactor
}

func connectInfrastructure(cfg *config.Config, log *logger.Logger) (*infrastructure, error) {
	infra := &infrastructure{publisher: events.NoopPublisher{}}

	if cfg.Database.Driver == config.DatabaseDriverMongo {
		db, err := database.NewMongoDB(&database.DatabaseConfig{
			URI:            cfg.Database.URI,
			Database:       cfg.Database.Database,
			Username:       cfg.Database.Username,
			Password:       cfg.Database.Password,
			AuthSource:     cfg.Database.AuthSource,
			MaxPoolSize:    cfg.Database.MaxPoolSize,
			MinPoolSize:    cfg.Database.MinPoolSize,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			SocketTimeout:  cfg.Database.SocketTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		infra.mongo = db
		log.WithField("database", cfg.Database.Database).Info("Connected to MongoDB")
	} else {
		log.Warn("Using in-memory storage; data is lost on restart")
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			infra.close(log)
			return nil, err
		}
		infra.redis = redisCache
		infra.broker = redisCache
		infra.cache = redisCache
		log.WithField("addr", cfg.Redis.Addr()).Info("Connected to Redis")
	} else {
		infra.broker = cache.NewMemoryBroker()
		log.Warn("Redis disabled; realtime fan-out is limited to this process")
	}

	if cfg.Events.Enabled && len(cfg.Events.Brokers) > 0 {
		infra.publisher = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:       cfg.Events.Brokers,
			RideTopic:     cfg.Events.RideTopic,
			LocationTopic: cfg.Events.LocationTopic,
			BatchTimeout:  cfg.Events.BatchTimeout,
			WriteTimeout:  cfg.Events.WriteTimeout,
			RequiredAcks:  cfg.Events.RequiredAcks,
		})
		log.WithField("brokers", cfg.Events.Brokers).Info("Kafka event stream enabled")
	}

	return infra, nil
}

func (i *infrastructure) repositories(cfg *config.Config) *repositories {
	if i.mongo == nil {
		store := memory.NewStore()
		return &repositories{
			profiles:      memory.NewProfileRepository(store),
			rides:         memory.NewRideRepository(store),
			transactions:  memory.NewTransactionRepository(store),
			ratings:       memory.NewRatingRepository(store),
			messages:      memory.NewRideMessageRepository(store),
			conversations: i.conversationRepository(cfg, memory.NewConversationRepository(store)),
			transactor:    memory.NewTransactor(store),
		}
	}

	db := i.mongo.Database
	return &repositories{
		profiles:      mongodb.NewProfileRepository(db),
		rides:         mongodb.NewRideRepository(db, i.cache, cfg.Redis.RideCacheTTL),
		transactions:  mongodb.NewTransactionRepository(db),
		ratings:       mongodb.NewRatingRepository(db),
		messages:      mongodb.NewRideMessageRepository(db),
		conversations: i.conversationRepository(cfg, nil),
		transactor:    mongodb.NewTransactor(i.mongo),
	}
}

// conversationRepository prefers Redis so conversations survive restarts and
// are shared between instances.
func (i *infrastructure) conversationRepository(cfg *config.Config, fallback interfaces.ConversationRepository) interfaces.ConversationRepository {
	if i.cache != nil {
		return redisrepo.NewConversationRepository(i.cache, cfg.Assistant.ConversationTTL)
	}
	if fallback != nil {
		return fallback
	}
	return memory.NewConversationRepository(memory.NewStore())
}

func (i *infrastructure) close(log *logger.Logger) {
	if i.publisher != nil {
		if err := i.publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close event publisher")
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis")
		}
	}
	if i.mongo != nil {
		if err := i.mongo.Close(); err != nil {
			log.WithError(err).Warn("Failed to close MongoDB")
		}
	}
}

func newMapsProvider(cfg *config.MapsConfig) (maps.MapsProvider, error) {
	switch cfg.Provider {
	case config.MapsProviderGoogle:
		return maps.NewGoogleMapsProvider(maps.GoogleMapsConfig{
			APIKey:   cfg.GoogleMaps.APIKey,
			Language: cfg.Language,
			Country:  cfg.Country,
		})
	default:
		return maps.NewMapboxProvider(maps.MapboxConfig{
			AccessToken: cfg.Mapbox.AccessToken,
			BaseURL:     cfg.Mapbox.BaseURL,
			Language:    cfg.Language,
			Country:     cfg.Country,
			Timeout:     cfg.Timeout,
		}), nil
	}
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case config.StorageProviderAWS:
		return storage.NewAWSS3Storage(ctx, storage.AWSS3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			CDNDomain:       cfg.AWS.CDNDomain,
		})
	case config.StorageProviderLocal:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	default:
		return nil, errors.New("unsupported storage provider: " + cfg.Provider)
	}
}

// newPaymentProvider returns nil when top-ups are disabled.
func newPaymentProvider(cfg *config.PaymentConfig) payment.PaymentProvider {
	if !cfg.Enabled || cfg.Stripe == nil || cfg.Stripe.SecretKey == "" {
		return nil
	}
	return payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
}

// newLLMProvider returns nil when the assistant is disabled.
func newLLMProvider(cfg *config.AssistantConfig) llm.Provider {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	return llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		DefaultModel: cfg.DefaultModel,
	})
}
