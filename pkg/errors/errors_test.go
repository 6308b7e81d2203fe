package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	original := NewRemoteAPIError("start run", 500, `{"error":"boom"}`)

	appErr := FromError(original)
	assert.Same(t, original, appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "start run")
}

func TestErrorHandlerRendersValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/chat", func(c *gin.Context) {
		c.Error(NewValidationError("invalid request", map[string]string{"message": "message is required"}))
	})

	req, _ := http.NewRequest(http.MethodPost, "/chat", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "message is required")
}

func TestRecoveryRespondsWithGenericError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithLogger())
	r.GET("/boom", func(c *gin.Context) {
		panic("secret internal state")
	})

	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.NotContains(t, w.Body.String(), "secret internal state")
}
