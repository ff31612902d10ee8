package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/wedgo/internal/payment"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/service"
)

// @Summary  Paid state of an invitation
// @Tags     payments
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Success  200  {object}  checkout.Summary
// @Router   /api/invitations/{id}/payments [get]
func handlePaymentSummary(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svcs.Checkout.Summary(c.Request.Context(), actorFrom(c), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// @Summary  Start a checkout
// @Tags     payments
// @Security BearerAuth
// @Param    id   path      string           true  "Invitation ID"
// @Param    req  body      payment.Request  true  "packages"
// @Success  201  {object}  checkout.Checkout
// @Failure  400  {object}  ErrorResponse
// @Router   /api/invitations/{id}/checkout [post]
func handleCheckout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		co, err := svcs.Checkout.Checkout(c.Request.Context(), actorFrom(c), c.Param("id"), req)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, co)
	}
}

// @Summary  Record a completed payment (idempotent)
// @Tags     payments
// @Security BearerAuth
// @Param    id   path      string                true  "Invitation ID"
// @Param    req  body      RecordPaymentRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  checkout.Summary
// @Failure  409  {object}  ErrorResponse  "idempotency key in progress"
// @Router   /api/invitations/{id}/payments [post]
func handleRecordPayment(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPayment(id, idemKey)

			state, payload, err := idem.Begin(c.Request.Context(), idemStorageKey)
			if err != nil {
				respondErr(c, err)
				return
			}
			switch state {
			case redisrepo.IdemDone:
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			case redisrepo.IdemInProgress:
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress", Kind: "DuplicateError"})
				return
			}
		}

		sum, err := svcs.Checkout.Record(c.Request.Context(), actorFrom(c), id, req.toDomain())
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			b, _ := json.Marshal(sum)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, sum)
	}
}
