package middleware

import (
	"strings"

	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/util"
	"nurseprep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有全部权限，直接放行
			if string(user.Role) == string(model.Admin) {
				hasRole = true
				break
			}
			if string(user.Role) == string(role) {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware 异步记录用户活跃时间。单个 worker 消费有界
// 队列，请求路径只做一次非阻塞投递；队列满时丢弃，活跃时间允许
// 丢失精度。
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	queue := make(chan uint, 256)
	go func() {
		for userID := range queue {
			if err := repo.UpdateLastSeen(userID); err != nil {
				logger.Log.Warn("更新用户活跃时间失败", zap.Uint("userId", userID), zap.Error(err))
			}
		}
	}()

	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			select {
			case queue <- claims.UserID:
			default:
			}
		}
		c.Next()
	}
}
