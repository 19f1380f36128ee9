// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"encoding/base64"
	"strconv"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/service"
	"github.com/wb-go/wbf/ginext"
)

type PhotoHandler struct {
	service PhotoService
}

type PhotoService interface {
	Upload(ctx context.Context, in *model.UploadData) (int64, error)
	Retrieve(ctx context.Context, assetID int64) (*model.AssetContent, error)
	RetrieveThumbnail(ctx context.Context, assetID int64) (*model.AssetContent, error)
	ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error)
	ListLabels(ctx context.Context, assetID int64) ([]model.Label, error)
	Search(ctx context.Context, pattern string) ([]model.SearchHit, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) (*model.PingResult, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

func NewPhotoHandler(svc PhotoService) *PhotoHandler {
	return &PhotoHandler{
		service: svc,
	}
}

func (h PhotoHandler) Ping(ctx *ginext.Context) {
	res, err := h.service.Ping(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "M": -1, "N": -1})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "M": res.M, "N": res.N})
}

func (h PhotoHandler) ListUsers(ctx *ginext.Context) {
	res, err := h.service.ListUsers(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "data": []model.User{}})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "data": nonNil(res)})
}

func (h PhotoHandler) ListAssets(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]any{"message": model.ErrInvalidID.Error(), "data": []model.Asset{}})
		return
	}

	res, err := h.service.ListAssets(ctx.Request.Context(), req.UserID)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "data": []model.Asset{}})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "data": nonNil(res)})
}

func (h PhotoHandler) Upload(ctx *ginext.Context) {
	userID, err := parseID(ctx.Param("userid"))
	if err != nil {
		ctx.JSON(400, map[string]any{"message": err.Error(), "assetid": -1})
		return
	}

	var req model.UploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]any{"message": model.ErrBadRequest.Error(), "assetid": -1})
		return
	}

	in, err := service.ParseUploadRequest(userID, req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "assetid": -1})
		return
	}

	assetID, err := h.service.Upload(ctx.Request.Context(), in)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "assetid": -1})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "assetid": assetID})
}

func (h PhotoHandler) Retrieve(ctx *ginext.Context) {
	h.writeContent(ctx, h.service.Retrieve)
}

func (h PhotoHandler) RetrieveThumbnail(ctx *ginext.Context) {
	h.writeContent(ctx, h.service.RetrieveThumbnail)
}

func (h PhotoHandler) ListLabels(ctx *ginext.Context) {
	assetID, err := parseID(ctx.Param("assetid"))
	if err != nil {
		ctx.JSON(400, map[string]any{"message": err.Error(), "data": []model.Label{}})
		return
	}

	res, err := h.service.ListLabels(ctx.Request.Context(), assetID)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "data": []model.Label{}})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "data": nonNil(res)})
}

func (h PhotoHandler) Search(ctx *ginext.Context) {
	res, err := h.service.Search(ctx.Request.Context(), ctx.Param("label"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "data": []model.SearchHit{}})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success", "data": nonNil(res)})
}

func (h PhotoHandler) Clear(ctx *ginext.Context) {
	if err := h.service.Clear(ctx.Request.Context()); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error()})
		return
	}

	ctx.JSON(200, map[string]any{"message": "success"})
}

func (h PhotoHandler) writeContent(ctx *ginext.Context, load func(context.Context, int64) (*model.AssetContent, error)) {
	assetID, err := parseID(ctx.Param("assetid"))
	if err != nil {
		ctx.JSON(400, map[string]any{"message": err.Error(), "userid": -1})
		return
	}

	res, err := load(ctx.Request.Context(), assetID)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]any{"message": err.Error(), "userid": -1})
		return
	}

	ctx.JSON(200, map[string]any{
		"message":        "success",
		"userid":         res.UserID,
		"local_filename": res.LocalName,
		"data":           base64.StdEncoding.EncodeToString(res.Data),
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidID
	}
	return id, nil
}
