package httpadapter

import (
	"net/http"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTabularWriteRejected):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrModelProtocol):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrModelUnavailable),
		domain.IsKind(err, domain.ErrUpstreamUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
