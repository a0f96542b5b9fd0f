package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		code   Code
		status int
	}{
		{"not found", NotFound("candidate", "c1"), CodeNotFound, 404},
		{"validation", Validation("bad"), CodeValidation, 400},
		{"validationf", Validationf("bad %s", "x"), CodeValidation, 400},
		{"extraction", ExtractionFailed("unsupported format", nil), CodeExtractionFailed, 422},
		{"transport", Transport(errors.New("smtp down")), CodeTransport, 502},
		{"ambiguous", AmbiguousOrNotFound("a@b.c", 2), CodeAmbiguousOrNotFound, 409},
		{"out of order", OutOfOrderSignal("c1", "PENDING", "OPENED"), CodeOutOfOrderSignal, 409},
		{"permission", PermissionDenied("file f1", nil), CodePermissionDenied, 403},
		{"internal", Internal(nil), CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestIs_UnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("campaign", "tok")
	wrapped := fmt.Errorf("record open: %w", base)

	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeValidation))
	assert.False(t, Is(errors.New("plain"), CodeNotFound))
	assert.False(t, Is(nil, CodeNotFound))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 502, StatusOf(fmt.Errorf("send: %w", Transport(nil))))
	assert.Equal(t, 500, StatusOf(errors.New("boom")))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("x: %w", NotFound("campaign", "1"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestExtractionFailed_KeepsCause(t *testing.T) {
	cause := errors.New("llm timeout")
	err := ExtractionFailed("extract profile", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "extract profile", err.Details["reason"])
}
