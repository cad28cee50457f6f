// Package api はプール占有とダイアログレコードの読み取り専用の監視APIを提供する。
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yamorin9/radscen/internal/dialog"
	"github.com/yamorin9/radscen/internal/pool"
	"github.com/yamorin9/radscen/pkg/apperr"
	"github.com/yamorin9/radscen/pkg/httputil"
)

// DialogReader はAPIが参照するダイアログストア操作。
type DialogReader interface {
	Get(ctx context.Context, key string) (*dialog.Record, error)
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}

// Handler は監視APIのハンドラー。
type Handler struct {
	pools     *pool.Manager
	store     DialogReader
	keyPrefix string
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(pools *pool.Manager, store DialogReader, keyPrefix string) *Handler {
	return &Handler{
		pools:     pools,
		store:     store,
		keyPrefix: keyPrefix,
	}
}

// healthResponse はGET /health のレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth はGET /health のハンドラー。
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// poolListResponse はGET /api/v1/pools のレスポンス。
type poolListResponse struct {
	Pools []pool.Status `json:"pools"`
}

// HandlePools はGET /api/v1/pools のハンドラー。
func (h *Handler) HandlePools(c *gin.Context) {
	c.JSON(http.StatusOK, poolListResponse{Pools: h.pools.Snapshot()})
}

// HandlePool はGET /api/v1/pools/:name のハンドラー。
func (h *Handler) HandlePool(c *gin.Context) {
	name := c.Param("name")
	st, ok := h.pools.PoolStatus(name)
	if !ok {
		httputil.WriteError(c, httputil.NotFound("address pool not found: "+name))
		return
	}
	c.JSON(http.StatusOK, st)
}

// bindingListResponse はGET /api/v1/bindings のレスポンス。
type bindingListResponse struct {
	Bindings []pool.Binding `json:"bindings"`
}

// HandleBindings はGET /api/v1/bindings のハンドラー。
func (h *Handler) HandleBindings(c *gin.Context) {
	c.JSON(http.StatusOK, bindingListResponse{Bindings: h.pools.Bindings()})
}

// dialogListResponse はGET /api/v1/dialogs のレスポンス。
type dialogListResponse struct {
	Keys []string `json:"keys"`
}

// dialogResponse はキー指定時のGET /api/v1/dialogs のレスポンス。
type dialogResponse struct {
	Key    string         `json:"key"`
	Record *dialog.Record `json:"record"`
}

// HandleDialogs はGET /api/v1/dialogs のハンドラー。
// key クエリパラメータ指定時は単一レコードを、省略時はキー一覧を返す。
func (h *Handler) HandleDialogs(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		keys, err := h.store.ScanKeys(c.Request.Context(), h.keyPrefix)
		if err != nil {
			h.writeStoreError(c, err)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		c.JSON(http.StatusOK, dialogListResponse{Keys: keys})
		return
	}

	rec, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrDialogNotFound) {
			httputil.WriteError(c, httputil.NotFound("dialog not found: "+key))
			return
		}
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, dialogResponse{Key: key, Record: rec})
}

// writeStoreError はストアエラーをProblemDetailへ変換する。
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, apperr.ErrStoreUnavailable) || errors.Is(err, apperr.ErrStoreTimeout) {
		httputil.WriteError(c, httputil.ServiceUnavailable("dialog store unavailable"))
		return
	}
	httputil.WriteError(c, httputil.InternalServerError(err.Error()))
}
