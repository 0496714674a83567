package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service"
)

var errInvalidBody = errors.New("invalid request body")

type SettlementHandler struct {
	svs SettlementServicer
}

func NewSettlementHandler(svs SettlementServicer) *SettlementHandler {
	return &SettlementHandler{
		svs: svs,
	}
}

// ProcessOrderRequest товар задается через product_id, либо через product_name для старых клиентов.
type ProcessOrderRequest struct {
	UserID      string `json:"user_id" binding:"required,not_blank,max_bytes=128"`
	ProductID   int64  `json:"product_id" binding:"required_without=ProductName,omitempty,gt=0"`
	ProductName string `json:"product_name" binding:"required_without=ProductID,max_bytes=255"`
}

type ProcessOrderResponse struct {
	Success    bool    `json:"success"`
	Commission float64 `json:"commission"`
	NewBalance float64 `json:"newBalance"`
	Mode       string  `json:"mode"`
	OrderID    string  `json:"order_id"`
}

// Process POST RouteGroup + ProcessOrderRoute.
func (s *SettlementHandler) Process(c *gin.Context) {
	var req ProcessOrderRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		abortWithError(c, http.StatusBadRequest, bindErr, errInvalidBody)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	res, err := s.svs.Settle(reqCtx, service.SettleArgs{
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
	})
	if err != nil {
		status, public := settlementErrorStatus(err)
		abortWithError(c, status, err, public)
		return
	}

	c.JSON(http.StatusOK, &ProcessOrderResponse{
		Success:    true,
		Commission: res.Commission.InexactFloat64(),
		NewBalance: res.NewBalance.InexactFloat64(),
		Mode:       string(res.Mode),
		OrderID:    res.Order.ID.String(),
	})
}

// settlementErrorStatus http статус и публичная ошибка для ошибки проводки заказа.
func settlementErrorStatus(err error) (int, error) {
	var inconsistency *domain.InconsistencyError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusBadRequest, domain.ErrAccountNotFound
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusBadRequest, domain.ErrProductNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, domain.ErrInsufficientBalance
	case errors.As(err, &inconsistency):
		return http.StatusInternalServerError, domain.ErrBalanceUpdateFailed
	case errors.Is(err, domain.ErrOrderUpdateFailed):
		return http.StatusInternalServerError, domain.ErrOrderUpdateFailed
	case errors.Is(err, domain.ErrBalanceUpdateFailed):
		return http.StatusInternalServerError, domain.ErrBalanceUpdateFailed
	default:
		return http.StatusInternalServerError, nil
	}
}
