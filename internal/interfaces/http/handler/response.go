package handler

import "github.com/lotledger/backend/internal/interfaces/http/dto"

// APIResponse is dto.Response with a typed data member. Handlers write
// dto.Response; this form documents each endpoint's payload and decodes it.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every failed request
// @Description Failed request; error.code is one of the ERR_* codes
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
