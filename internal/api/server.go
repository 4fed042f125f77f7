// Package api exposes the order and position management HTTP surface used
// by the bot frontend. Execution never happens here: orders are created as
// pending rows and picked up by the schedulers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/internal/marketdata"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
	"github.com/GOODBADBOY10/centron-bot/storage"
)

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

type Server struct {
	e         *echo.Echo
	db        storage.DatabaseStorage
	market    marketdata.Source
	logger    *logrus.Logger
	jwtSecret string
	port      int64
}

func NewServer(db storage.DatabaseStorage, market marketdata.Source, logger *logrus.Logger, jwtSecret string, port int64) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validator: validator.New()}
	e.Use(middleware.Recover())

	s := &Server{
		e:         e,
		db:        db,
		market:    market,
		logger:    logger,
		jwtSecret: jwtSecret,
		port:      port,
	}

	e.GET("/health", s.Health)

	authed := e.Group("", s.jwtMiddleware)
	authed.POST("/orders/limit", s.CreateLimitOrder)
	authed.POST("/orders/dca", s.CreateDCAOrder)
	authed.GET("/orders", s.ListOrders)
	authed.DELETE("/orders/:kind/:id", s.CancelOrder)
	authed.GET("/positions", s.ListPositions)

	return s
}

func (s *Server) Start() error {
	return s.e.Start(fmt.Sprintf(":%d", s.port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

const userIDKey = "user_id"

func (s *Server) jwtMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
		}
		rawUserID, ok := claims[userIDKey].(float64)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing user_id claim")
		}

		c.Set(userIDKey, int64(rawUserID))
		return next(c)
	}
}

func userID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) CreateLimitOrder(c echo.Context) error {
	var req CreateLimitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	quantity, err := parseQuantity(req.AmountMist, req.Percentage)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order := types.LimitOrder{
		ID:               uuid.New().String(),
		UserID:           userID(c),
		WalletAddress:    req.WalletAddress,
		TokenAddress:     req.TokenAddress,
		Side:             types.OrderSide(req.Side),
		Quantity:         quantity,
		TriggerMarketCap: req.TriggerMarketCap,
		Slippage:         req.Slippage,
		Status:           types.StatusPending,
	}
	if err := order.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.db.InsertLimitOrder(c.Request().Context(), order); err != nil {
		s.logger.WithError(err).Error("fail to insert limit order")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	return c.JSON(http.StatusCreated, order)
}

func (s *Server) CreateDCAOrder(c echo.Context) error {
	var req CreateDCAOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	quantity, err := parseQuantity(req.AmountMist, req.Percentage)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order := types.DcaOrder{
		ID:              uuid.New().String(),
		UserID:          userID(c),
		WalletAddress:   req.WalletAddress,
		TokenAddress:    req.TokenAddress,
		Side:            types.OrderSide(req.Side),
		Quantity:        quantity,
		IntervalMinutes: req.IntervalMinutes,
		MaxExecutions:   req.MaxExecutions,
		EndAt:           req.EndAt,
		Slippage:        req.Slippage,
		Status:          types.StatusPending,
	}
	if err := order.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.db.InsertDCAOrder(c.Request().Context(), order); err != nil {
		s.logger.WithError(err).Error("fail to insert dca order")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	return c.JSON(http.StatusCreated, order)
}

func (s *Server) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	uid := userID(c)

	limitOrders, err := s.db.GetUserLimitOrders(ctx, uid)
	if err != nil {
		s.logger.WithError(err).Error("fail to list limit orders")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}
	dcaOrders, err := s.db.GetUserDCAOrders(ctx, uid)
	if err != nil {
		s.logger.WithError(err).Error("fail to list dca orders")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	return c.JSON(http.StatusOK, OrdersResponse{
		LimitOrders: limitOrders,
		DcaOrders:   dcaOrders,
	})
}

func (s *Server) CancelOrder(c echo.Context) error {
	kind := types.OrderKind(c.Param("kind"))
	if kind != types.OrderKindLimit && kind != types.OrderKindDCA {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order kind")
	}

	err := s.db.CancelOrder(c.Request().Context(), kind, userID(c), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no cancellable order found")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListPositions returns the wallet's positions, valued at the current spot
// price when market data is reachable. Valuation is best effort: a provider
// outage degrades the response to the stored cost basis.
func (s *Server) ListPositions(c echo.Context) error {
	wallet := c.QueryParam("wallet")
	if wallet == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "wallet query parameter is required")
	}

	ctx := c.Request().Context()
	positions, err := s.db.GetPositions(ctx, userID(c), wallet)
	if err != nil {
		s.logger.WithError(err).Error("fail to list positions")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list positions")
	}

	views := make([]PositionView, 0, len(positions))
	for _, pos := range positions {
		view := PositionView{Position: pos}

		mdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		data, err := s.market.TokenData(mdCtx, pos.TokenAddress)
		cancel()
		if err == nil && data.PriceSUI > 0 {
			view.CurrentPriceSUI = data.PriceSUI
			view.PnLSUI, view.PnLPercent = pos.UnrealizedPnL(data.PriceSUI)
		}

		views = append(views, view)
	}

	return c.JSON(http.StatusOK, views)
}
