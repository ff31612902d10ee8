package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/auth"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/service"
)

type Config struct {
	AllowedOrigins []string
	BodyLimit      int64
	// SecureCookies marks the share cookie Secure and SameSite=None so it
	// survives cross-site front-ends served over https.
	SecureCookies bool
}

func NewRouter(
	svcs *service.Services,
	sessions *auth.Sessions,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	cfg Config,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS(cfg.AllowedOrigins))
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", ActorMiddleware(sessions), BodyLimit(cfg.BodyLimit))

	api.GET("/public/:name", handlePublic(svcs, cfg))

	api.GET("/comment", handleListComments(svcs))
	api.POST("/comment", handlePostComment(svcs))
	api.PATCH("/comment", handleReplaceComments(svcs))
	api.DELETE("/comment", handleDeleteComment(svcs))

	inv := api.Group("/invitations")
	{
		inv.GET("", handleListInvitations(svcs))
		inv.POST("", handleCreateInvitation(svcs))
		inv.GET("/:id", handleGetInvitation(svcs))
		inv.DELETE("/:id", handleDeleteInvitation(svcs))

		inv.PATCH("/:id/display-name", handlePatch(svcs.Invitations.UpdateDisplayName))
		inv.PATCH("/:id/stories", handlePatch(svcs.Invitations.UpdateStories))
		inv.PATCH("/:id/surprise", handlePatch(svcs.Invitations.UpdateSurprise))
		inv.PATCH("/:id/couple", handlePatch(svcs.Invitations.UpdateCouple))
		inv.PATCH("/:id/events", handlePatch(svcs.Invitations.UpdateEvents))
		inv.PATCH("/:id/galleries", handlePatch(svcs.Invitations.UpdateGalleries))
		inv.PATCH("/:id/loadout", handlePatch(svcs.Invitations.UpdateLoadout))
		inv.PATCH("/:id/music", handlePatch(svcs.Invitations.UpdateMusic))
		inv.PATCH("/:id/status", handlePatch(svcs.Invitations.UpdateStatus))

		inv.GET("/:id/guests", handleListGuests(svcs))
		inv.PUT("/:id/guests", handleSaveGuests(svcs))

		inv.GET("/:id/payments", handlePaymentSummary(svcs))
		inv.POST("/:id/checkout", handleCheckout(svcs))
		inv.POST("/:id/payments", handleRecordPayment(svcs, idem))

		inv.GET("/:id/media", handleListMedia(svcs))
		inv.POST("/:id/media", handleUploadMedia(svcs))
		inv.DELETE("/:id/media/*key", handleDeleteMedia(svcs))
	}

	return r
}

// --- Helpers ---

func parseOptionalInt(c *gin.Context, name string) (*int, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: apperr.Validation.String()})
}

// respondErr writes err with the status of its kind. Internal errors are
// attached to the context so the logging middleware records the cause.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		_ = c.Error(err)
	}

	c.JSON(kind.HTTPStatus(), ErrorResponse{
		Error: apperr.Message(err),
		Kind:  kind.String(),
	})
}
