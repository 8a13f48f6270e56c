package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Peterboktor1993/replate-checkout/internal/handler"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

type Server struct {
	echo            *echo.Echo
	valorHandler    *handler.ValorHandler
	payHandler      *handler.PayHandler
	checkoutHandler *handler.CheckoutHandler
}

func NewServer(checkoutService service.CheckoutService, logger *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		valorHandler:    handler.NewValorHandler(checkoutService),
		payHandler:      handler.NewPayHandler(checkoutService, logger),
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- valor gateway relay --------
	valor := api.Group("/valor")
	valor.POST("/create-session", s.valorHandler.CreateSession)
	valor.POST("/verify-transaction", s.valorHandler.VerifyTransaction)
	valor.GET("/check-status", s.valorHandler.CheckStatus)

	// -------- payment confirmation / finalization --------
	api.POST("/pay", s.payHandler.Pay)
	api.GET("/pay", s.payHandler.Return)

	// -------- checkout staging / incomplete payments --------
	checkout := api.Group("/checkout")
	checkout.POST("/stage", s.checkoutHandler.StageOrder)
	checkout.GET("/incomplete/:restaurantID", s.checkoutHandler.GetIncomplete)
	checkout.DELETE("/incomplete/:restaurantID", s.checkoutHandler.CancelIncomplete)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
