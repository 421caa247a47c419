package handlers

import (
	"errors"
	"net/http"
	"time"

	"usercache-api/internal/cache"
	"usercache-api/internal/stores"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetKeyRequest is the body of PUT /api/stores/:store/keys/:key
// The ttlSeconds bound is models.MaxTTLSeconds.
type SetKeyRequest struct {
	Value      any   `json:"value"`
	TTLSeconds int64 `json:"ttlSeconds" binding:"gte=0,lte=9223372036"`
}

// KeysRequest carries the keys of a batch read, delete or existence check
type KeysRequest struct {
	Keys []string `json:"keys" binding:"required"`
}

// SetManyRequest carries the items of a batch write
type SetManyRequest struct {
	Items []cache.KeyValue `json:"items" binding:"required"`
}

// CacheHandler serves the per-store key-value endpoints.
type CacheHandler struct {
	registry *stores.Registry
	logger   *zap.Logger
}

func NewCacheHandler(registry *stores.Registry, logger *zap.Logger) *CacheHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHandler{registry: registry, logger: logger.Named("cache-api")}
}

// store resolves :store and writes the error response when it is missing or unavailable.
func (h *CacheHandler) store(c *gin.Context) (*cache.TTLCache, bool) {
	name := c.Param("store")
	st, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return nil, false
	}
	if !st.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store unavailable"})
		return nil, false
	}
	return st, true
}

// GetKey handles GET /api/stores/:store/keys/:key
func (h *CacheHandler) GetKey(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	key := c.Param("key")
	value, err := st.Lookup(key)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found", "key": key})
		return
	case errors.Is(err, cache.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store unavailable"})
		return
	case err != nil:
		h.logger.Error("lookup failed", zap.String("store", st.Name()), zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// HasKey handles HEAD /api/stores/:store/keys/:key
func (h *CacheHandler) HasKey(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	if st.Has(c.Param("key")) {
		c.Status(http.StatusOK)
		return
	}
	c.Status(http.StatusNotFound)
}

// SetKey handles PUT /api/stores/:store/keys/:key
// A zero ttlSeconds uses the store default TTL.
func (h *CacheHandler) SetKey(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req SetKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	if !st.SetWithTTL(key, req.Value, time.Duration(req.TTLSeconds)*time.Second) {
		h.logger.Warn("write rejected", zap.String("store", st.Name()), zap.String("key", key))
		c.JSON(http.StatusInsufficientStorage, gin.H{"error": "Write rejected", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "stored": true})
}

// DeleteKey handles DELETE /api/stores/:store/keys/:key
func (h *CacheHandler) DeleteKey(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	key := c.Param("key")
	c.JSON(http.StatusOK, gin.H{"key": key, "deleted": st.Delete(key)})
}

// GetMany handles POST /api/stores/:store/get-many
// Missing keys come back with a null value and found=false.
func (h *CacheHandler) GetMany(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := st.GetMany(req.Keys)
	values := make(map[string]any, len(results))
	found := make(map[string]bool, len(results))
	for k, opt := range results {
		v, present := opt.Get()
		values[k] = v
		found[k] = present
	}
	c.JSON(http.StatusOK, gin.H{"values": values, "found": found})
}

// SetMany handles POST /api/stores/:store/set-many
// The response always carries the stored count; callers compare it with submitted.
func (h *CacheHandler) SetMany(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req SetManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored := st.SetMany(req.Items)
	if stored < len(req.Items) {
		h.logger.Warn("partial batch write",
			zap.String("store", st.Name()),
			zap.Int("submitted", len(req.Items)),
			zap.Int("stored", stored))
	}
	c.JSON(http.StatusOK, gin.H{"submitted": len(req.Items), "stored": stored})
}

// DeleteMany handles POST /api/stores/:store/delete-many
func (h *CacheHandler) DeleteMany(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": st.DeleteMany(req.Keys)})
}

// HasAny handles POST /api/stores/:store/has-any
func (h *CacheHandler) HasAny(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": st.HasAny(req.Keys)})
}

// HasAll handles POST /api/stores/:store/has-all
func (h *CacheHandler) HasAll(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	var req KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": st.HasAll(req.Keys)})
}

// Purge handles POST /api/stores/:store/purge
func (h *CacheHandler) Purge(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	purged := st.Purge()
	h.logger.Info("store purged", zap.String("store", st.Name()), zap.Bool("purged", purged))
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// Stats handles GET /api/stores/:store/stats
func (h *CacheHandler) Stats(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st.Stats())
}

// Ready handles GET /api/stores/:store/ready
// Unlike the other endpoints it answers for unavailable stores too.
func (h *CacheHandler) Ready(c *gin.Context) {
	name := c.Param("store")
	st, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}
	status := http.StatusOK
	if !st.IsReady() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"store":        name,
		"ready":        st.IsReady(),
		"capabilities": cache.CapabilitiesOf(st),
	})
}
