package httpgin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
)

const (
	ShareCookie = "wedgo_share"
	ShareHeader = "X-Share-Token"

	actorKey = "actor"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

// CORS allows the invitation front-ends in origins. Credentials are allowed
// so the share cookie travels with comment requests, which rules out "*".
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Idempotency-Key",
			"If-None-Match",
			ShareHeader,
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
			"Retry-After",
			ShareHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		reqID, _ := c.Get("request_id")

		attrs := []any{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.String("ua", c.Request.UserAgent()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", c.Writer.Size()),
		}
		if actor := actorFrom(c); actor.Authenticated() {
			attrs = append(attrs, slog.String("user_id", actor.UserID))
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
			logger.Error("http", slog.Group("http", attrs...))
		} else {
			logger.Info("http", slog.Group("http", attrs...))
		}
	}
}

// ActorMiddleware reads the owner session and both share token copies. A
// request without a bearer token passes as anonymous; a bad one is refused.
func ActorMiddleware(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor access.Actor

		if h := c.GetHeader("Authorization"); h != "" {
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok {
				respondErr(c, apperr.E("httpgin.ActorMiddleware", apperr.Auth, "malformed authorization header"))
				c.Abort()
				return
			}

			claims, err := sessions.Verify(strings.TrimSpace(token))
			if err != nil {
				respondErr(c, apperr.Wrap("httpgin.ActorMiddleware", apperr.Auth, err, "please sign in again"))
				c.Abort()
				return
			}
			actor.UserID = claims.UserID()
			actor.Email = claims.Email
		}

		actor.ShareCookie, _ = c.Cookie(ShareCookie)
		actor.ShareHeader = c.GetHeader(ShareHeader)

		c.Set(actorKey, actor)
		c.Next()
	}
}

// BodyLimit caps JSON request bodies. Multipart uploads are capped by the
// media service instead.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil &&
			!strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) access.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return access.Actor{}
	}
	actor, _ := v.(access.Actor)
	return actor
}
