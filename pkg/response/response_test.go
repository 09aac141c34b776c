package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWriters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name      string
		write     func(c *gin.Context)
		code      int
		status    string
		errText   string
		aborted   bool
		wantsData bool
	}{
		{"ok", func(c *gin.Context) { OK(c, gin.H{"id": 1}) }, http.StatusOK, StatusSuccess, "", false, true},
		{"fail", func(c *gin.Context) { Fail(c, http.StatusNotFound, "not found") }, http.StatusNotFound, StatusError, "not found", false, false},
		{"abort", func(c *gin.Context) { Abort(c, http.StatusUnauthorized, "unauthorized") }, http.StatusUnauthorized, StatusError, "unauthorized", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)

			if w.Code != tt.code {
				t.Fatalf("http status = %d, want %d", w.Code, tt.code)
			}
			if c.IsAborted() != tt.aborted {
				t.Errorf("aborted = %v, want %v", c.IsAborted(), tt.aborted)
			}
			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.status || body.StatusCode != tt.code || body.Error != tt.errText {
				t.Errorf("body = %+v", body)
			}
			if (body.Data != nil) != tt.wantsData {
				t.Errorf("data = %v", body.Data)
			}
		})
	}
}
