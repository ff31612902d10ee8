package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/service"
	"github.com/kirinyoku/wedgo/internal/service/comment"
)

// @Summary  List comments
// @Description Open to the owner, or to a guest presenting the share token
// @Description both as cookie and as X-Share-Token header.
// @Tags     comments
// @Param    id   query     string  true  "Invitation ID"
// @Success  200  {object}  ValueBody[[]domain.Comment]
// @Failure  403  {object}  ErrorResponse
// @Router   /api/comment [get]
func handleListComments(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := svcs.Comments.List(c.Request.Context(), actorFrom(c), c.Query("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValueBody[[]domain.Comment]{Value: comments})
	}
}

// @Summary  Post a comment
// @Description With token and slug the comment is posted as that guest,
// @Description otherwise as the owner.
// @Tags     comments
// @Param    id   query     string          true  "Invitation ID"
// @Param    req  body      CommentRequest  true  "payload"
// @Success  201  {object}  domain.Comment
// @Failure  403  {object}  ErrorResponse
// @Failure  422  {object}  ErrorResponse  "rate limited"
// @Router   /api/comment [post]
func handlePostComment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		var (
			posted domain.Comment
			err    error
		)
		if req.Token != "" {
			posted, err = svcs.Comments.PostGuest(c.Request.Context(), actorFrom(c), c.Query("id"), c.ClientIP(), comment.GuestPost{
				Slug:     req.Slug,
				Token:    req.Token,
				Text:     req.Text,
				IsComing: req.IsComing,
			})
		} else {
			posted, err = svcs.Comments.PostOwner(c.Request.Context(), actorFrom(c), c.Query("id"), comment.OwnerPost{
				Alias: req.Alias,
				Text:  req.Text,
			})
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, posted)
	}
}

// @Summary  Replace the comment list
// @Tags     comments
// @Security BearerAuth
// @Param    id   query     string  true  "Invitation ID"
// @Param    req  body      ValueBody[[]domain.Comment]  true  "payload"
// @Success  200  {object}  ValueBody[[]domain.Comment]
// @Router   /api/comment [patch]
func handleReplaceComments(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValueBody[[]domain.Comment]
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"value\": [...]}")
			return
		}

		saved, err := svcs.Comments.Replace(c.Request.Context(), actorFrom(c), c.Query("id"), req.Value)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValueBody[[]domain.Comment]{Value: saved})
	}
}

// @Summary  Delete a comment
// @Tags     comments
// @Security BearerAuth
// @Param    id     query     string  true   "Invitation ID"
// @Param    alias  query     string  false  "Decoded alias"
// @Param    index  query     int     false  "Position in the list"
// @Success  200    {object}  ValueBody[[]domain.Comment]
// @Failure  404    {object}  ErrorResponse
// @Router   /api/comment [delete]
func handleDeleteComment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, ok := parseOptionalInt(c, "index")
		if !ok {
			return
		}

		left, err := svcs.Comments.Delete(c.Request.Context(), actorFrom(c), c.Query("id"), c.Query("alias"), index)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ValueBody[[]domain.Comment]{Value: left})
	}
}
