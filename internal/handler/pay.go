package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Peterboktor1993/replate-checkout/internal/dto"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

type PayHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.SugaredLogger
}

func NewPayHandler(checkoutService service.CheckoutService, logger *zap.SugaredLogger) *PayHandler {
	return &PayHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// Pay handles POST /api/pay: either a confirmation signal relayed from the
// payment window, or a direct finalize request (used for retry after a
// processing answer or a failed placement).
func (h *PayHandler) Pay(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	token := bearerToken(c)
	h.logger.Infow("pay request",
		"uid", req.UID, "signal", req.Signal, "customer", customerFromToken(token))

	if req.Signal != "" {
		result, err := h.checkoutService.HandleSignal(ctx, req.UID, req.InvoiceNumber, req.Signal, token)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}

	orderID, err := h.checkoutService.FinalizeOrder(ctx, req.UID, req.InvoiceNumber, token)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.PayResponse{
		Success: true,
		Status:  "success",
		OrderID: orderID,
	})
}

// Return handles GET /api/pay: the page the gateway redirects back to, also
// loaded inside the payment popup. It consumes the status query parameters,
// runs the signal through verification, and renders a page that posts the
// outcome to window.opener before closing itself.
func (h *PayHandler) Return(c echo.Context) error {
	ctx := c.Request().Context()

	invoice := c.QueryParam("invoice")
	uid := c.QueryParam("order_id")
	if uid == "" {
		uid = c.QueryParam("uid")
	}
	status := c.QueryParam("status")

	// No identifiers at all: the outcome cannot be confirmed, so this is an
	// ambiguous state requiring explicit resolution, not an implicit success.
	if invoice == "" && uid == "" {
		return h.renderOutcome(c, "processing",
			"We could not confirm your payment yet. If you completed it, return to the store to resume your order.", "")
	}

	signal := "failed"
	if status == "success" || status == "approved" {
		signal = "success"
	}

	result, err := h.checkoutService.HandleSignal(ctx, uid, invoice, signal, bearerToken(c))
	if err != nil {
		var finalErr *service.FinalizationError
		switch {
		case errors.As(err, &finalErr):
			return h.renderOutcome(c, "order_not_placed",
				fmt.Sprintf("Your payment was received but the order could not be placed. Contact support with payment reference %s (invoice %s). Do not pay again.",
					finalErr.UID, finalErr.InvoiceNumber), "")
		case errors.Is(err, service.ErrVerificationPending):
			return h.renderOutcome(c, "processing",
				"Your payment is still being confirmed. This page will let the store know once it settles.", "")
		case errors.Is(err, service.ErrPaymentDeclined):
			return h.renderOutcome(c, "failed",
				"Your payment was declined. You can return to the store and try again.", "")
		case errors.Is(err, service.ErrSessionNotFound):
			// stale parameters from a re-used tab
			return h.renderOutcome(c, "failed",
				"This payment link is no longer active.", "")
		}
		h.logger.Errorw("payment return failed", "uid", uid, "invoice", invoice, "error", err)
		return h.renderOutcome(c, "failed", "Something went wrong while confirming your payment.", "")
	}

	if result.Success {
		return h.renderOutcome(c, "success", "Payment confirmed and your order has been placed.", result.OrderID)
	}
	return h.renderOutcome(c, result.Status, "Payment was not completed.", result.OrderID)
}

func (h *PayHandler) renderOutcome(c echo.Context, status, message, orderID string) error {
	terminal := status == "success" || status == "failed" || status == "order_not_placed"

	// json.Marshal escapes <, > and & so the object is safe inside <script>
	outcome, err := json.Marshal(map[string]string{
		"status":  status,
		"message": message,
		"orderId": orderID,
	})
	if err != nil {
		return err
	}

	page := fmt.Sprintf(outcomePage,
		html.EscapeString(message),
		outcome,
		terminal,
	)
	return c.HTML(http.StatusOK, page)
}

const outcomePage = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Payment Status</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
		.countdown {
			font-size: 24px;
			font-weight: bold;
		}
	</style>
</head>
<body>
	<h2>Payment Status</h2>
	<p id="message">%s</p>
	<p id="closing" style="display:none">This window closes in <span class="countdown" id="countdown">3</span> seconds.</p>

	<script>
		const outcome = %s;
		const terminal = %t;
		let signaled = false;

		function notifyOpener(payload) {
			if (window.opener && !window.opener.closed) {
				window.opener.postMessage(payload, "*");
			}
			signaled = true;
		}

		if (terminal) {
			notifyOpener(outcome);
			document.getElementById("closing").style.display = "block";
			let seconds = 3;
			const el = document.getElementById("countdown");
			const timer = setInterval(function () {
				seconds--;
				el.textContent = seconds;
				if (seconds <= 0) {
					clearInterval(timer);
					window.close();
				}
			}, 1000);
		}

		window.addEventListener("beforeunload", function () {
			if (!signaled) {
				notifyOpener({ status: "closed", message: "payment window closed", orderId: "" });
			}
		});
	</script>
</body>
</html>
`
