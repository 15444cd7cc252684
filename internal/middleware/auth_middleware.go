package middleware

import (
	"strings"

	"oustaa/internal/models"
	"oustaa/internal/session"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID   = "user_id"
	ContextUserType = "user_type"
	ContextSession  = "session"
)

// AuthRequired opens a request scoped session from the bearer token. The
// token may also be passed as the "token" query parameter, which browsers
// need for WebSocket upgrades.
func AuthRequired(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			utils.HandleError(c, utils.UnauthorizedError("authorization token required"))
			c.Abort()
			return
		}

		sess, err := sessions.Open(c.Request.Context(), token)
		if err != nil {
			utils.HandleError(c, err)
			c.Abort()
			return
		}
		defer sess.Close()

		profile := sess.Profile()
		c.Set(ContextSession, sess)
		c.Set(ContextUserID, profile.ID)
		c.Set(ContextUserType, profile.UserType)

		c.Next()
	}
}

// TokenFromRequest reads a bearer token from the Authorization header or the
// "token" query parameter.
func TokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

// DriverRequired must run after AuthRequired.
func DriverRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeDriver, "driver access required")
}

// RiderRequired must run after AuthRequired.
func RiderRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeRider, "rider access required")
}

func requireUserType(userType models.UserType, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserType)
		if !exists {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if current, ok := value.(models.UserType); !ok || current != userType {
			utils.HandleError(c, utils.ForbiddenError(message))
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

func GetSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	return sess, ok
}
