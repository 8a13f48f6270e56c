package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Peterboktor1993/replate-checkout/internal/client"
	"github.com/Peterboktor1993/replate-checkout/internal/dto"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

// serviceError converts the error taxonomy into the uniform
// {success:false, error} envelope. Raw gateway exceptions never leak.
func serviceError(c echo.Context, err error) error {
	var finalErr *service.FinalizationError
	if errors.As(err, &finalErr) {
		// never a generic failure: money is captured, the order is not
		// recorded, and the identifiers must stay visible
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success":       false,
			"error":         "payment captured but order placement failed, contact support with these references",
			"status":        "order_not_placed",
			"uid":           finalErr.UID,
			"invoicenumber": finalErr.InvoiceNumber,
			"restaurant_id": finalErr.RestaurantID,
		})
	}

	switch {
	case errors.Is(err, service.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrVerificationPending):
		return c.JSON(http.StatusAccepted, dto.VerifyResponse{Success: false, Status: "processing"})
	case errors.Is(err, service.ErrPaymentDeclined):
		return c.JSON(http.StatusBadRequest, dto.VerifyResponse{Success: false, Status: "declined"})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrFinalizeInFlight):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrStagedOrderMissing),
		errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, client.ErrMalformedGatewayResponse):
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment gateway returned an invalid response"})
	case errors.Is(err, client.ErrGatewayUnavailable):
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment gateway unavailable, try again"})
	}

	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}
