package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		version        string
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			name:           "successful version request",
			version:        "1.2.3",
			expectedStatus: http.StatusOK,
			expectedBody: map[string]interface{}{
				"name":    "diarist",
				"version": "1.2.3",
				"status":  "running",
			},
		},
		{
			name:           "development build",
			version:        "dev",
			expectedStatus: http.StatusOK,
			expectedBody: map[string]interface{}{
				"version": "dev",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Get(tt.version)(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)

			for key, expectedValue := range tt.expectedBody {
				assert.Equal(t, expectedValue, response[key], "Key: %s", key)
			}
		})
	}
}
