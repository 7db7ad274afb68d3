package api

import (
	"errors"
	"net/http"

	"referral-campaign/internal/middleware"
	"referral-campaign/internal/model"
	"referral-campaign/internal/service"
	"referral-campaign/pkg/auth"
	"referral-campaign/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.SessionAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.SessionAuth, securityHash, devSecret string) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	{
		public := h.Group("/")
		public.Use(middleware.RequireSecurityHash(securityHash))
		{
			public.POST("", r.CreateUser)
			public.POST("/login", r.Login)
			public.GET("", r.GetUsers)
			public.GET("/snapshot", r.GetSnapshot)
		}

		session := h.Group("/")
		session.Use(a.SessionAuthMiddleware())
		{
			session.POST("/bind", r.BindWallet)
			session.POST("/finish", r.FinishTask)
			session.POST("/validate", r.ValidateSession)
		}

		admin := h.Group("/")
		admin.Use(middleware.RequireDevSecret(devSecret))
		{
			admin.POST("/multiplier", r.SetMultiplier)
			admin.DELETE("/:twitter_id", r.DeleteUser)
		}
	}
}

func newClaims(u *model.User) *auth.Claims {
	wallet := ""
	if u.WalletAddress != nil {
		wallet = *u.WalletAddress
	}

	return &auth.Claims{
		UserID:         u.ID,
		TwitterID:      u.TwitterID,
		Wallet:         wallet,
		TotalPoints:    u.TotalPoints,
		ReferralPoints: u.ReferralPoints,
		ReferralsCount: len(u.ReferredBy),
		ReferralCode:   u.ReferralCode,
		FinishedTasks:  u.FinishedTasks,
		Multiplier:     u.Multiplier,
	}
}

func userJSON(u *model.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"twitter_id":      u.TwitterID,
		"wallet_address":  u.WalletAddress,
		"referral_code":   u.ReferralCode,
		"total_points":    u.TotalPoints,
		"referral_points": u.ReferralPoints,
		"finished_tasks":  u.FinishedTasks,
		"referred_by":     u.ReferredBy,
		"referrer_id":     u.ReferrerID,
		"multiplier":      u.Multiplier,
	}
}

type CreateUserRequest struct {
	TwitterID     string  `json:"twitter_id" binding:"required"`
	WalletAddress *string `json:"wallet_address"`
	Password      string  `json:"password" binding:"required"`
	ReferralCode  *string `json:"referral_code"`
}

func (r *userRoutes) CreateUser(c *gin.Context) {
	log := logger.Logger()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := r.us.Register(c.Request.Context(), &service.RegisterInput{
		TwitterID:     req.TwitterID,
		WalletAddress: req.WalletAddress,
		Password:      req.Password,
		ReferralCode:  req.ReferralCode,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	token, err := r.a.Issue(newClaims(u))
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  userJSON(u),
		"token": token,
	})
}

type LoginRequest struct {
	TwitterID     string `json:"twitter_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

func (r *userRoutes) Login(c *gin.Context) {
	log := logger.Logger()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := r.us.Login(c.Request.Context(), &service.LoginInput{
		TwitterID:     req.TwitterID,
		WalletAddress: req.WalletAddress,
		Password:      req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user does not exist"})
		case errors.Is(err, service.ErrWrongWallet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "wrong wallet connected"})
		case errors.Is(err, service.ErrBadCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad credentials"})
		default:
			log.Error("failed to login user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	token, err := r.a.Issue(newClaims(u))
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  userJSON(u),
		"token": token,
	})
}

type BindWalletRequest struct {
	TwitterID     string `json:"twitter_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

func (r *userRoutes) BindWallet(c *gin.Context) {
	log := logger.Logger()

	var req BindWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.BindWallet(c.Request.Context(), req.TwitterID, req.WalletAddress)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to bind wallet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}

type FinishTaskRequest struct {
	TaskID        int64  `json:"task_id" binding:"required"`
	WalletAddress string `json:"wallet" binding:"required"`
}

func (r *userRoutes) FinishTask(c *gin.Context) {
	log := logger.Logger()

	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		log.Error("session claims not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req FinishTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.WalletAddress != claims.Wallet {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet does not match session"})
		return
	}

	u, err := r.us.FinishTask(c.Request.Context(), req.WalletAddress, req.TaskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		default:
			log.Error("failed to finish task",
				zap.Error(err),
				zap.Int64("task_id", req.TaskID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	token, err := r.a.Issue(newClaims(u))
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  userJSON(u),
		"token": token,
	})
}

type ValidateSessionRequest struct {
	TwitterID     string `json:"twitter_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// ValidateSession cross-checks the presented identity against the token
// subject's stored row and returns a fresh claims snapshot.
func (r *userRoutes) ValidateSession(c *gin.Context) {
	log := logger.Logger()

	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		log.Error("session claims not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var req ValidateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := r.us.GetUserByWalletAddress(c.Request.Context(), claims.Wallet)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "inaccessible"})
			return
		}
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if u.TwitterID != req.TwitterID || u.WalletAddress == nil || *u.WalletAddress != req.WalletAddress {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inaccessible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"claims": newClaims(u)})
}

func (r *userRoutes) GetUsers(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.ListUsers(c.Request.Context())
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve users"})
		return
	}

	out := make([]gin.H, len(users))
	for i, u := range users {
		out[i] = userJSON(u)
	}

	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (r *userRoutes) GetSnapshot(c *gin.Context) {
	log := logger.Logger()

	snapshots, err := r.us.Snapshot(c.Request.Context())
	if err != nil {
		log.Error("failed to build snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve users"})
		return
	}

	out := make([]gin.H, len(snapshots))
	for i, s := range snapshots {
		out[i] = gin.H{
			"twitter_id":     s.TwitterID,
			"wallet_address": s.WalletAddress,
			"points":         s.Points,
		}
	}

	c.JSON(http.StatusOK, out)
}

type SetMultiplierRequest struct {
	TwitterID  string `json:"twitter_id" binding:"required"`
	Multiplier *int   `json:"multiplier" binding:"required"`
}

func (r *userRoutes) SetMultiplier(c *gin.Context) {
	log := logger.Logger()

	var req SetMultiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.SetMultiplier(c.Request.Context(), req.TwitterID, *req.Multiplier)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to set multiplier", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}

func (r *userRoutes) DeleteUser(c *gin.Context) {
	log := logger.Logger()

	twitterID := c.Param("twitter_id")
	rows, err := r.us.DeleteUser(c.Request.Context(), twitterID)
	if err != nil {
		log.Error("failed to delete user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows_affected": rows})
}
