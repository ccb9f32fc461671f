// app/seenmw.go
package app

import (
	"context"

	"github.com/gin-gonic/gin"
)

type SeenToucher interface {
	TouchUserSeen(ctx context.Context, userID string) error
}

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TouchLastSeen writes users.last_seen_at at most once per throttle window.
func TouchLastSeen(users SeenToucher, limit Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := CurrentUserID(c)
		if !ok {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if ok, _ := limit.Allow(ctx, uid); ok {
			_ = users.TouchUserSeen(ctx, uid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
