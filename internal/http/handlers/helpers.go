package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/marketplace-backend/internal/http/response"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

const maxPageSize = 200

func readCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryID reads an optional uuid query parameter. A malformed value is
// rejected even when the parameter is optional.
func queryID(c *gin.Context, name string, required bool) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if required {
			response.RespondError(c, http.StatusBadRequest, "missing_"+name, fmt.Errorf("%s query parameter is required", name))
			return uuid.Nil, false
		}
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func notFound(c *gin.Context, what string, id any) {
	response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("%s %v not found", what, id))
}
