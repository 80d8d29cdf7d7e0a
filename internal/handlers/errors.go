package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
)

// statusFor maps a coordinator error to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, orders.ErrNoOfferOutstanding):
		return http.StatusConflict, "no_offer_outstanding"
	case errors.Is(err, orders.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, orders.ErrPrecondition):
		return http.StatusPreconditionFailed, "precondition_failed"
	case errors.Is(err, orders.ErrUnauthorizedActor):
		return http.StatusForbidden, "unauthorized_actor"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, gin.H{"error": code, "detail": err.Error()})
}
