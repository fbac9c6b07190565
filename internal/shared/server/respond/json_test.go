package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{query: "", limit: 20, offset: 0},
		{query: "?limit=5&offset=10", limit: 5, offset: 10},
		{query: "?limit=-3&offset=-1", limit: 20, offset: 0},
		{query: "?limit=abc", limit: 20, offset: 0},
		{query: "?limit=1000", limit: 100, offset: 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
		limit, offset := Paging(c)
		if limit != tt.limit || offset != tt.offset {
			t.Fatalf("Paging(%q) = %d,%d want %d,%d", tt.query, limit, offset, tt.limit, tt.offset)
		}
	}
}
