package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Peterboktor1993/replate-checkout/internal/dto"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// StageOrder persists the order payload before payment begins.
func (h *CheckoutHandler) StageOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StageOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	invoiceNumber, err := h.checkoutService.StageOrder(ctx, &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.StageOrderResponse{
		Success:       true,
		InvoiceNumber: invoiceNumber,
	})
}

// GetIncomplete returns the unresolved payment for a restaurant scope, if
// any, so the storefront can offer resume/cancel.
func (h *CheckoutHandler) GetIncomplete(c echo.Context) error {
	ctx := c.Request().Context()

	restaurantID := c.Param("restaurantID")
	record, err := h.checkoutService.ResumeIncompletePayment(ctx, restaurantID)
	if err != nil {
		return serviceError(c, err)
	}

	if record == nil {
		return c.JSON(http.StatusOK, dto.IncompletePaymentResponse{Success: true, Found: false})
	}

	return c.JSON(http.StatusOK, dto.IncompletePaymentResponse{
		Success:       true,
		Found:         true,
		OrderID:       record.OrderID,
		UID:           record.UID,
		InvoiceNumber: record.InvoiceNumber,
		Amount:        record.Amount,
		RestaurantID:  record.RestaurantID,
		Status:        string(record.Status),
		Timestamp:     record.UpdatedAt.Unix(),
	})
}

// CancelIncomplete discards the unresolved payment and its staged order.
func (h *CheckoutHandler) CancelIncomplete(c echo.Context) error {
	ctx := c.Request().Context()

	restaurantID := c.Param("restaurantID")
	if err := h.checkoutService.CancelIncompletePayment(ctx, restaurantID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
