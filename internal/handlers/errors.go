package handlers

import (
	"errors"
	"net/http"

	"dairy-backend/internal/services"
	"dairy-backend/pkg/utils"
)

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrConcurrentModification):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInsufficientCredit):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrCollectionNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}
