// Package notify builds the transient, auto-dismissing notices shown after
// a write. Each one is classified from the error the backend call produced.
package notify

import (
	"errors"
	"net/http"
	"time"

	"churchattend/internal/apiclient"
)

// Kind classifies a notification for the view.
type Kind string

const (
	Success    Kind = "success"
	Validation Kind = "validation"
	Server     Kind = "server"
	Failure    Kind = "failure"
)

const (
	DefaultValidation = "입력값을 확인해주세요."
	DefaultServer     = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	DefaultFailure    = "요청 처리 중 오류가 발생했습니다."
)

// Notification is dismissed by the browser after DismissAfter.
type Notification struct {
	Kind         Kind   `json:"kind"`
	Message      string `json:"message"`
	DismissAfter int64  `json:"dismissAfterMs"`
}

// Builder stamps notifications with a dismiss delay.
type Builder struct {
	DismissAfter time.Duration
}

func (b Builder) ms() int64 {
	d := b.DismissAfter
	if d <= 0 {
		d = 3 * time.Second
	}
	return d.Milliseconds()
}

// Success builds a success notice.
func (b Builder) Success(msg string) Notification {
	return Notification{Kind: Success, Message: msg, DismissAfter: b.ms()}
}

// Invalid builds a validation notice for input rejected before reaching
// the backend. An empty msg uses DefaultValidation.
func (b Builder) Invalid(msg string) Notification {
	if msg == "" {
		msg = DefaultValidation
	}
	return Notification{Kind: Validation, Message: msg, DismissAfter: b.ms()}
}

// FromError classifies err: a 400 carries the server's message, a 500 gets
// the generic server text, anything else the generic failure text.
func (b Builder) FromError(err error) Notification {
	n := Notification{Kind: Failure, Message: DefaultFailure, DismissAfter: b.ms()}
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return n
	}
	switch apiErr.Status {
	case http.StatusBadRequest:
		n.Kind = Validation
		n.Message = DefaultValidation
		if apiErr.Message != "" {
			n.Message = apiErr.Message
		}
	case http.StatusInternalServerError:
		n.Kind = Server
		n.Message = DefaultServer
	}
	return n
}
