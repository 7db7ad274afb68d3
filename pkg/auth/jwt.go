package auth

import (
	"net/http"
	"strings"
	"time"

	"referral-campaign/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens are short-lived on purpose: every mutating endpoint reissues one
// with the updated user snapshot baked in.
const tokenTTL = 10 * time.Minute

const claimsContextKey = "session_claims"

// Claims is the user aggregate snapshot carried inside the session token.
type Claims struct {
	UserID         int64   `json:"id"`
	TwitterID      string  `json:"username"`
	Wallet         string  `json:"wallet"`
	TotalPoints    int     `json:"total_points"`
	ReferralPoints int     `json:"referral_points"`
	ReferralsCount int     `json:"referrals_count"`
	ReferralCode   string  `json:"referral_code"`
	FinishedTasks  []int64 `json:"finished_tasks"`
	Multiplier     int     `json:"multiplier"`
	jwt.RegisteredClaims
}

type SessionAuth struct {
	secret []byte
}

func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{secret: []byte(secret)}
}

func (s *SessionAuth) Issue(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionAuth) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}

// SessionAuthMiddleware validates the bearer token and stores the decoded
// claims on the request context for handlers to pick up.
func (s *SessionAuth) SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := s.Verify(tokenStr)
		if err != nil {
			log.Info("invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}

	claims, ok := value.(*Claims)
	if !ok {
		return nil, false
	}

	return claims, true
}
