package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/wedgo/internal/service"
	"github.com/kirinyoku/wedgo/internal/service/asset"
)

// @Summary  List an invitation's files
// @Tags     media
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Success  200  {array}   media.Object
// @Router   /api/invitations/{id}/media [get]
func handleListMedia(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		objs, err := svcs.Assets.List(c.Request.Context(), actorFrom(c), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, objs)
	}
}

// @Summary  Upload an image or audio file
// @Tags     media
// @Security BearerAuth
// @Accept   multipart/form-data
// @Param    id    path      string  true  "Invitation ID"
// @Param    file  formData  file    true  "file"
// @Success  201   {object}  media.Object
// @Failure  400   {object}  ErrorResponse
// @Router   /api/invitations/{id}/media [post]
func handleUploadMedia(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "file is required")
			return
		}

		f, err := fh.Open()
		if err != nil {
			badRequest(c, "file cannot be read")
			return
		}
		defer f.Close()

		obj, err := svcs.Assets.Upload(c.Request.Context(), actorFrom(c), c.Param("id"), asset.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, obj)
	}
}

// @Summary  Delete one file
// @Tags     media
// @Security BearerAuth
// @Param    id   path      string  true  "Invitation ID"
// @Param    key  path      string  true  "Object key"
// @Success  200  {object}  DeletedResponse
// @Failure  403  {object}  ErrorResponse
// @Router   /api/invitations/{id}/media/{key} [delete]
func handleDeleteMedia(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Assets.Delete(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("key")); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, DeletedResponse{Deleted: true})
	}
}
