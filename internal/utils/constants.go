package utils

// Application Constants
const (
	AppName = "OusTaa"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Chat
	MaxMessageLength = 1000

	// Assistant
	MaxPromptLength = 4000

	// File Upload
	MaxImageSize = 5 * 1024 * 1024 // 5MB
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrNotFound           = "not found"
	ErrValidationFailed   = "validation failed"
	ErrRideNotPending     = "ride is no longer pending"
	ErrInsufficientFunds  = "insufficient wallet balance"
	ErrVersionConflict    = "record was modified concurrently"
)

// Cache keys and pub/sub channels
const (
	CacheRidePrefix         = "ride:"
	CacheConversationPrefix = "assistant:conversation:"

	ChannelRideMessages   = "ride_messages:"
	ChannelRideEvents     = "ride_events:"
	ChannelUserEvents     = "user_events:"
	ChannelProfileUpdates = "profile_updates:"
)

// Event Types
const (
	EventRideRequested      = "ride_requested"
	EventRideAccepted       = "ride_accepted"
	EventRideStarted        = "ride_started"
	EventRideCompleted      = "ride_completed"
	EventRideCancelled      = "ride_cancelled"
	EventRideSettled        = "ride_settled"
	EventRideMessage        = "ride_message"
	EventRatingSubmitted    = "rating_submitted"
	EventWalletUpdated      = "wallet_updated"
	EventDriverLocation     = "driver_location"
	EventDriverAvailability = "driver_availability"
)

// File Types
var (
	AllowedImageContentTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
