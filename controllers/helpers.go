package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

// respondError translates a service error into the JSON envelope.
func respondError(ctx *gin.Context, err error) {
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		utils.Error(ctx, http.StatusNotFound, 40401, nf.Error())
		return
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		utils.Error(ctx, apiErr.Status, apiErr.Status*100+1, apiErr.Message)
		return
	}
	utils.Sugar.Errorw("request failed", "method", ctx.Request.Method, "path", ctx.FullPath(), "err", err)
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}

// bindJSON decodes the body into req and answers 400 when binding or validation fails.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload: "+err.Error())
		return false
	}
	return true
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
