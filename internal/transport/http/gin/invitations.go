package httpgin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/service"
)

// @Summary  List the caller's invitations
// @Tags     invitations
// @Security BearerAuth
// @Success  200  {array}   domain.Invitation
// @Failure  401  {object}  ErrorResponse
// @Router   /api/invitations [get]
func handleListInvitations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		invs, err := svcs.Invitations.List(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, invs)
	}
}

// @Summary  Create a draft invitation
// @Tags     invitations
// @Security BearerAuth
// @Param    req  body      CreateInvitationRequest  true  "payload"
// @Success  201  {object}  domain.Invitation
// @Failure  409  {object}  ErrorResponse  "name taken"
// @Failure  422  {object}  ErrorResponse  "draft limit reached"
// @Router   /api/invitations [post]
func handleCreateInvitation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateInvitationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		inv, err := svcs.Invitations.AddNew(c.Request.Context(), actorFrom(c), req.toService())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// @Summary  Get an invitation
// @Tags     invitations
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Success  200  {object}  domain.Invitation
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /api/invitations/{id} [get]
func handleGetInvitation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := svcs.Invitations.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, inv, "private, no-cache", true)
	}
}

// @Summary  Delete an invitation and its files
// @Tags     invitations
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Success  200  {object}  DeletedResponse
// @Router   /api/invitations/{id} [delete]
func handleDeleteInvitation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Invitations.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, DeletedResponse{Deleted: true})
	}
}

// handlePatch serves the single-slice writes, all shaped {"value": ...}.
//
// @Summary  Replace one slice of an invitation
// @Tags     invitations
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Param    req  body      object  true  "{\"value\": ...}"
// @Success  200  {object}  object  "{\"value\": ...} as stored"
// @Failure  400  {object}  ErrorResponse
// @Router   /api/invitations/{id}/{slice} [patch]
func handlePatch[T any](
	update func(ctx context.Context, actor access.Actor, id string, v T) (T, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValueBody[T]
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"value\": ...}")
			return
		}

		saved, err := update(c.Request.Context(), actorFrom(c), c.Param("id"), req.Value)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValueBody[T]{Value: saved})
	}
}

// @Summary  List guests
// @Tags     guests
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Success  200  {object}  ValueBody[[]domain.Guest]
// @Router   /api/invitations/{id}/guests [get]
func handleListGuests(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		guests, err := svcs.Guests.List(c.Request.Context(), actorFrom(c), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValueBody[[]domain.Guest]{Value: guests})
	}
}

// @Summary  Replace the guest list
// @Description Names are normalised into slugs and groups, ids and tokens are
// @Description assigned, and comments of renamed guests are re-linked.
// @Tags     guests
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Param    req  body      ValueBody[[]domain.Guest]  true  "payload"
// @Success  200  {object}  guest.SaveResult
// @Failure  409  {object}  ErrorResponse  "duplicate guest"
// @Failure  422  {object}  ErrorResponse  "guest limit"
// @Router   /api/invitations/{id}/guests [put]
func handleSaveGuests(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValueBody[[]domain.Guest]
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"value\": [...]}")
			return
		}

		res, err := svcs.Guests.Save(c.Request.Context(), actorFrom(c), c.Param("id"), req.Value)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Public invitation page data
// @Description Sets the share cookie and returns the same token in the body
// @Description and the X-Share-Token header.
// @Tags     public
// @Param    name   path      string  true   "Invitation name"
// @Param    to     query     string  false  "Guest slug"
// @Param    token  query     string  false  "Guest token"
// @Success  200    {object}  invitation.PublicView
// @Failure  404    {object}  ErrorResponse
// @Router   /api/public/{name} [get]
func handlePublic(svcs *service.Services, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svcs.Invitations.Public(
			c.Request.Context(),
			c.Param("name"),
			c.Query("to"),
			c.Query("token"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		maxAge := max(int(time.Until(view.ShareExpiresAt).Seconds()), 1)
		sameSite := http.SameSiteLaxMode
		if cfg.SecureCookies {
			sameSite = http.SameSiteNoneMode
		}
		c.SetSameSite(sameSite)
		c.SetCookie(ShareCookie, view.ShareToken, maxAge, "/api/comment", "", cfg.SecureCookies, true)
		c.Header(ShareHeader, view.ShareToken)

		tagOf := struct {
			Invitation domain.Invitation
			Guest      any
		}{view.Invitation, view.Guest}
		writeJSONWithETag(c, http.StatusOK, view, tagOf, "private, no-cache", true)
	}
}
