package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: fmt.Errorf("%w: title is required", ErrValidation), wantStatus: http.StatusBadRequest, wantCode: ErrCodeInvalidInput},
		{name: "not found", err: fmt.Errorf("%w: task not found", ErrNotFound), wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound},
		{name: "duplicate", err: ErrDuplicateUser, wantStatus: http.StatusConflict, wantCode: ErrCodeAlreadyExists},
		{name: "credentials", err: ErrAuthentication, wantStatus: http.StatusUnauthorized, wantCode: ErrCodeInvalidCredentials},
		{name: "persistence", err: fmt.Errorf("save: %w", ErrPersistence), wantStatus: http.StatusServiceUnavailable, wantCode: ErrCodeStorageUnavailable},
		{name: "unknown", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	_, apiErr := FromError(fmt.Errorf("%w: open /var/lib/todo/tasks.csv: permission denied", ErrPersistence))
	assert.NotContains(t, apiErr.Message, "/var/lib")
}
