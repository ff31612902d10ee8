package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeJSONWithCache writes v with ETag and Cache-Control headers and answers
// 304 when If-None-Match carries the same tag.
func writeJSONWithCache(
	c *gin.Context,
	status int,
	v any,
	cacheControl string,
	weak bool,
) {
	writeJSONWithETag(c, status, v, nil, cacheControl, weak)
}

// writeJSONWithETag is writeJSONWithCache with the ETag computed over tagOf
// instead of the body, for bodies carrying per-request fields.
func writeJSONWithETag(
	c *gin.Context,
	status int,
	v any,
	tagOf any,
	cacheControl string,
	weak bool,
) {
	b, err := json.Marshal(v)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	tagBytes := b
	if tagOf != nil {
		if tagBytes, err = json.Marshal(tagOf); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	sum := sha256.Sum256(tagBytes)
	tag := `"` + hex.EncodeToString(sum[:]) + `"`
	if weak {
		tag = "W/" + tag
	}
	inm := c.GetHeader("If-None-Match")
	c.Header("ETag", tag)
	if cacheControl != "" {
		c.Header("Cache-Control", cacheControl)
	}
	if inm == tag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}
