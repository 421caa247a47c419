package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"usercache-api/internal/database"
	"usercache-api/internal/models"
	"usercache-api/internal/session"
	"usercache-api/internal/stores"
	"usercache-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db
}

func newRegistry(t *testing.T, instances ...models.StoreInstance) *stores.Registry {
	t.Helper()
	reg := stores.NewRegistry(stores.Options{Enabled: true})
	t.Cleanup(reg.Close)
	for _, inst := range instances {
		_, err := reg.Register(inst)
		require.NoError(t, err)
	}
	return reg
}

func newSessions(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.New(session.Config{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
