package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20}},
		{"?page=3&limit=50", Params{Page: 3, Limit: 50}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20}},
		{"?page=-2&limit=abc", Params{Page: 1, Limit: 20}},
		{"?limit=500", Params{Page: 1, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/audit-logs"+tt.query, nil)
		if got := Parse(c); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestBody(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	body := p.Body("logs", []string{"a"}, 21)
	if body["total"] != int64(21) || body["page"] != 2 || body["limit"] != 10 || body["pages"] != int64(3) {
		t.Errorf("body = %+v", body)
	}
	if _, ok := body["logs"]; !ok {
		t.Error("items missing under their key")
	}

	tests := []struct {
		total int64
		want  int64
	}{
		{0, 1},
		{1, 1},
		{10, 1},
		{11, 2},
	}
	for _, tt := range tests {
		if got := (Params{Page: 1, Limit: 10}).Pages(tt.total); got != tt.want {
			t.Errorf("Pages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
