package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/kreedentials/store/pkg/errors"
)

var (
	engineOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_engine_operations_total",
			Help: "Storefront engine operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	sessionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_session_conflicts_total",
			Help: "Session saves rejected by the optimistic version check",
		},
	)

	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_auth_attempts_total",
			Help: "Authentication attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

// outcome classifies err for metric labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
