package handlers

import (
	"errors"
	"net/http"

	"tuition-backend/internal/models"
	"tuition-backend/pkg/utils"
)

// writeError maps ledger errors to HTTP statuses. Validation problems return
// the per-field breakdown so clients can highlight inputs.
func writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		utils.JSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	var nfErr *models.NotFoundError
	if errors.As(err, &nfErr) {
		utils.Error(w, http.StatusNotFound, nfErr.Error())
		return
	}

	var amtErr *models.InvalidAmountError
	if errors.As(err, &amtErr) {
		utils.Error(w, http.StatusBadRequest, amtErr.Error())
		return
	}

	var overErr *models.OverpaymentError
	if errors.As(err, &overErr) {
		utils.Error(w, http.StatusUnprocessableEntity, overErr.Error())
		return
	}

	var discErr *models.DiscountExceedsBalanceError
	if errors.As(err, &discErr) {
		utils.Error(w, http.StatusUnprocessableEntity, discErr.Error())
		return
	}

	var negErr *models.NegativeAmountError
	if errors.As(err, &negErr) {
		utils.Error(w, http.StatusUnprocessableEntity, negErr.Error())
		return
	}

	var settledErr *models.AlreadySettledError
	if errors.As(err, &settledErr) {
		utils.Error(w, http.StatusConflict, settledErr.Error())
		return
	}

	var confErr *models.ConflictError
	if errors.As(err, &confErr) {
		utils.Error(w, http.StatusConflict, confErr.Error())
		return
	}

	utils.Error(w, http.StatusInternalServerError, err.Error())
}
