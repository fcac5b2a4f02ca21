package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type healthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Redis string `json:"redis"`
}

// Health pings the database and Redis with a short deadline. Used by the
// load balancer; reports per-dependency status without exposing internals.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out := healthResponse{DB: "ok", Redis: "ok"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			out.DB = "unavailable"
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			out.Redis = "unavailable"
		}

		out.OK = out.DB == "ok" && out.Redis == "ok"
		status := http.StatusOK
		if !out.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, out)
	}
}
