package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRecipeWrite("create")
	c.RecordRecipeWrite("create")
	c.RecordRelationChange("favorite", "add")
	c.RecordShoppingListExport(3)
	c.RecordRateLimited("recipe_create")
	c.RecordHTTPRequest("GET", "/api/recipes", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.recipeWrites.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.relationChanges.WithLabelValues("favorite", "add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.shoppingExports))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited.WithLabelValues("recipe_create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/recipes", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRecipeWrite("update")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `foodgram_recipe_writes_total{op="update"} 1`)
}
