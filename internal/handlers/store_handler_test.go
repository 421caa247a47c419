package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"usercache-api/internal/database"
	"usercache-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStoreRouter(t *testing.T) (*gin.Engine, *StoreHandler) {
	t.Helper()
	setupDB(t)
	h := NewStoreHandler(newRegistry(t), nil)

	r := gin.New()
	r.GET("/api/stores", h.ListStores)
	r.POST("/api/stores", h.CreateStore)
	r.DELETE("/api/stores/:store", h.DeleteStore)
	return r, h
}

func TestCreateStore(t *testing.T) {
	r, h := newStoreRouter(t)

	w := doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "pages", DefaultTTLSeconds: 60, MaxEntries: 10})
	require.Equal(t, http.StatusCreated, w.Code)

	st, ok := h.registry.Get("pages")
	require.True(t, ok)
	require.True(t, st.IsReady())
	require.Equal(t, int64(60), int64(st.DefaultTTL().Seconds()))

	var inst models.StoreInstance
	require.NoError(t, database.GetDB().Where("name = ?", "pages").First(&inst).Error)
	require.True(t, inst.Enabled)
	require.Equal(t, 10, inst.MaxEntries)

	w = doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "pages"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateStore_Validation(t *testing.T) {
	r, _ := newStoreRouter(t)

	w := doJSON(r, http.MethodPost, "/api/stores", map[string]any{"defaultTtlSeconds": 5})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/stores", map[string]any{"name": "x", "maxEntries": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStore_DisabledIsNotPersisted(t *testing.T) {
	r, h := newStoreRouter(t)

	disabled := false
	w := doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "off", Enabled: &disabled})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, ok := h.registry.Get("off")
	require.False(t, ok)

	var count int64
	database.GetDB().Model(&models.StoreInstance{}).Where("name = ?", "off").Count(&count)
	require.Zero(t, count)
}

func TestListStores(t *testing.T) {
	r, _ := newStoreRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "b"}).Code)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "a"}).Code)

	w := doJSON(r, http.MethodGet, "/api/stores", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stores []StoreResponse `json:"stores"`
		Count  int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Equal(t, "a", resp.Stores[0].Name)
	require.True(t, resp.Stores[0].Registered)
	require.True(t, resp.Stores[0].Ready)
}

func TestDeleteStore(t *testing.T) {
	r, h := newStoreRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "tmp"}).Code)
	st, _ := h.registry.Get("tmp")
	require.True(t, st.Set("k", "v"))

	w := doJSON(r, http.MethodDelete, "/api/stores/tmp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, st.IsReady())

	_, ok := h.registry.Get("tmp")
	require.False(t, ok)

	w = doJSON(r, http.MethodDelete, "/api/stores/tmp", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateStore_TTLOutOfRange(t *testing.T) {
	r, h := newStoreRouter(t)

	w := doJSON(r, http.MethodPost, "/api/stores", map[string]any{"name": "far", "defaultTtlSeconds": 18446744074})
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, ok := h.registry.Get("far")
	require.False(t, ok)
}

func TestDeleteStore_KeepsRunningStoreWhenDefinitionDeleteFails(t *testing.T) {
	r, h := newStoreRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/stores", CreateStoreRequest{Name: "keep"}).Code)
	st, _ := h.registry.Get("keep")
	require.True(t, st.Set("k", "v"))

	sqlDB, err := database.GetDB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := doJSON(r, http.MethodDelete, "/api/stores/keep", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	got, ok := h.registry.Get("keep")
	require.True(t, ok)
	require.True(t, got.IsReady())
	require.True(t, got.Has("k"))
}

func TestIsUniqueViolation(t *testing.T) {
	setupDB(t)
	db := database.GetDB()

	require.NoError(t, db.Create(&models.StoreInstance{Name: "dup", Enabled: true}).Error)
	err := db.Create(&models.StoreInstance{Name: "dup", Enabled: true}).Error
	require.Error(t, err)
	require.True(t, isUniqueViolation(err))

	require.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
}
