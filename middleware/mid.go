package middleware

import (
	"fmt"

	"github.com/awmbw/live-mart/internal/auth"
)

// Mid holds the dependencies the auth middleware needs.
type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("auth keys are nil")
	}
	return &Mid{keys: keys}, nil
}
