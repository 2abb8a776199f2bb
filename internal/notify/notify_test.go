package notify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"churchattend/internal/apiclient"
)

func TestFromError(t *testing.T) {
	b := Builder{DismissAfter: 2 * time.Second}
	tests := []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"validation with message", &apiclient.APIError{Status: 400, Message: "날짜 형식 오류"}, Validation, "날짜 형식 오류"},
		{"validation without message", &apiclient.APIError{Status: 400}, Validation, DefaultValidation},
		{"wrapped validation", fmt.Errorf("mark: %w", &apiclient.APIError{Status: 400, Message: "x"}), Validation, "x"},
		{"server hides message", &apiclient.APIError{Status: 500, Message: "stack trace"}, Server, DefaultServer},
		{"other status", &apiclient.APIError{Status: 404, Message: "not found"}, Failure, DefaultFailure},
		{"transport", errors.New("dial tcp: refused"), Failure, DefaultFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := b.FromError(tt.err)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.msg, n.Message)
			assert.EqualValues(t, 2000, n.DismissAfter)
		})
	}
}

func TestDefaultDismiss(t *testing.T) {
	assert.EqualValues(t, 3000, Builder{}.Success("ok").DismissAfter)
}

func TestInvalid(t *testing.T) {
	b := Builder{}
	assert.Equal(t, DefaultValidation, b.Invalid("").Message)
	n := b.Invalid("미래 날짜는 선택할 수 없습니다.")
	assert.Equal(t, Validation, n.Kind)
	assert.Equal(t, "미래 날짜는 선택할 수 없습니다.", n.Message)
}
