package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Peterboktor1993/replate-checkout/internal/dto"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

type ValorHandler struct {
	checkoutService service.CheckoutService
}

func NewValorHandler(checkoutService service.CheckoutService) *ValorHandler {
	return &ValorHandler{
		checkoutService: checkoutService,
	}
}

func (h *ValorHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	result, err := h.checkoutService.InitiatePayment(ctx, &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *ValorHandler) VerifyTransaction(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	status, err := h.checkoutService.Verify(ctx, req.UID, req.InvoiceNumber)
	if err != nil {
		return serviceError(c, err)
	}

	return verifyResponse(c, status)
}

func (h *ValorHandler) CheckStatus(c echo.Context) error {
	ctx := c.Request().Context()

	uid := c.QueryParam("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing uid"})
	}

	status, err := h.checkoutService.Verify(ctx, uid, "")
	if err != nil {
		return serviceError(c, err)
	}

	return verifyResponse(c, status)
}

func verifyResponse(c echo.Context, status service.VerifyStatus) error {
	switch status {
	case service.VerifyApproved:
		return c.JSON(http.StatusOK, dto.VerifyResponse{Success: true, Status: "approved"})
	case service.VerifyDeclined:
		return c.JSON(http.StatusBadRequest, dto.VerifyResponse{Success: false, Status: "declined"})
	default:
		// processing is not a failure; the caller should poll again
		return c.JSON(http.StatusAccepted, dto.VerifyResponse{Success: false, Status: "processing"})
	}
}
