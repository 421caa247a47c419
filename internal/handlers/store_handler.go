package handlers

import (
	"errors"
	"net/http"
	"strings"

	"usercache-api/internal/cache"
	"usercache-api/internal/database"
	"usercache-api/internal/models"
	"usercache-api/internal/stores"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateStoreRequest represents the request payload for defining a store
type CreateStoreRequest struct {
	Name              string `json:"name" binding:"required"`
	DefaultTTLSeconds int64  `json:"defaultTtlSeconds" binding:"gte=0,lte=9223372036"`
	MaxEntries        int    `json:"maxEntries" binding:"gte=0"`
	Enabled           *bool  `json:"enabled"`
}

// StoreResponse describes one store definition and its running state
type StoreResponse struct {
	models.StoreInstance
	Registered bool `json:"registered"`
	Ready      bool `json:"ready"`
	Entries    int  `json:"entries"`
}

// StoreHandler manages persisted store definitions.
type StoreHandler struct {
	registry *stores.Registry
	logger   *zap.Logger
}

func NewStoreHandler(registry *stores.Registry, logger *zap.Logger) *StoreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreHandler{registry: registry, logger: logger.Named("store-api")}
}

// ListStores handles GET /api/stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	instances, err := database.ListStoreInstances(database.GetDB())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}

	resp := make([]StoreResponse, 0, len(instances))
	for _, inst := range instances {
		item := StoreResponse{StoreInstance: inst}
		if st, ok := h.registry.Get(inst.Name); ok {
			item.Registered = true
			item.Ready = st.IsReady()
			item.Entries = st.Len()
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, gin.H{
		"stores": resp,
		"count":  len(resp),
	})
}

// CreateStore handles POST /api/stores
// The definition is persisted, then the store is started.
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inst := models.StoreInstance{
		Name:              req.Name,
		DefaultTTLSeconds: req.DefaultTTLSeconds,
		MaxEntries:        req.MaxEntries,
		Enabled:           req.Enabled == nil || *req.Enabled,
	}

	db := database.GetDB()
	var existing models.StoreInstance
	err := db.Where("name = ?", inst.Name).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Store already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check store"})
		return
	}
	if err := db.Create(&inst).Error; err != nil {
		// a concurrent create can win between the lookup and the insert
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Store already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store"})
		return
	}

	if _, err := h.registry.Register(inst); err != nil {
		// keep the table and the registry in agreement
		db.Delete(&inst)
		switch {
		case errors.Is(err, stores.ErrDuplicateStore):
			c.JSON(http.StatusConflict, gin.H{"error": "Store already exists"})
		case errors.Is(err, cache.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, cache.ErrInvalidConfig):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("register store", zap.String("store", inst.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start store"})
		}
		return
	}

	c.JSON(http.StatusCreated, StoreResponse{StoreInstance: inst, Registered: true, Ready: true})
}

// DeleteStore handles DELETE /api/stores/:store
// The definition is deleted first; the running store is purged only once that succeeded.
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	name := c.Param("store")

	result := database.GetDB().Where("name = ?", name).Delete(&models.StoreInstance{})
	if result.Error != nil {
		h.logger.Error("delete store definition", zap.String("store", name), zap.Error(result.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete store"})
		return
	}
	removeErr := h.registry.Remove(name)
	if errors.Is(removeErr, stores.ErrUnknownStore) && result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Store deleted successfully",
		"name":    name,
	})
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
