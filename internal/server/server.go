package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoを組み立てて全ルートを登録する。
func New(
	cfg config.Config,
	productH *handler.ProductHandler,
	cartH *handler.CartHandler,
	paymentH *handler.PaymentHandler,
	adminOrderH *handler.AdminOrderHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
		}))
	}

	api := e.Group("/api/v1")

	productH.RegisterRoutes(api)
	cartH.RegisterRoutes(api, cfg)
	paymentH.RegisterRoutes(api, cfg)
	adminOrderH.RegisterRoutes(api, cfg)

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
