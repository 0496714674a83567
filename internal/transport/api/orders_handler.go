package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

var (
	errInvalidUserID  = errors.New("invalid user_id")
	errNoPendingOrder = errors.New("no pending order")
)

type OrdersHandler struct {
	selectorSvs SelectorServicer
	orderSvs    OrderServicer
}

func NewOrdersHandler(selectorSvs SelectorServicer, orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		selectorSvs: selectorSvs,
		orderSvs:    orderSvs,
	}
}

// Take POST RouteGroup + TakeOrderRoute.
func (o *OrdersHandler) Take(c *gin.Context) {
	var req UserRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		abortWithError(c, http.StatusBadRequest, bindErr, errInvalidBody)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.selectorSvs.TakeOrder(reqCtx, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			abortWithError(c, http.StatusNotFound, err, domain.ErrAccountNotFound)
		case errors.Is(err, domain.ErrPendingOrderExists):
			abortWithError(c, http.StatusConflict, err, domain.ErrPendingOrderExists)
		case errors.Is(err, domain.ErrSettlementInProgress):
			abortWithError(c, http.StatusConflict, err, domain.ErrSettlementInProgress)
		case errors.Is(err, domain.ErrNoEligibleProduct):
			abortWithError(c, http.StatusUnprocessableEntity, err, domain.ErrNoEligibleProduct)
		default:
			abortWithError(c, http.StatusInternalServerError, err, nil)
		}
		return
	}

	c.JSON(http.StatusCreated, newOrderResponse(order))
}

// Cancel POST RouteGroup + CancelOrderRoute.
func (o *OrdersHandler) Cancel(c *gin.Context) {
	var req UserRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		abortWithError(c, http.StatusBadRequest, bindErr, errInvalidBody)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.CancelPending(reqCtx, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderUpdateFailed):
			abortWithError(c, http.StatusNotFound, err, errNoPendingOrder)
		case errors.Is(err, domain.ErrSettlementInProgress):
			abortWithError(c, http.StatusConflict, err, domain.ErrSettlementInProgress)
		default:
			abortWithError(c, http.StatusInternalServerError, err, nil)
		}
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}

// Index GET RouteGroup + UserOrdersRoute.
func (o *OrdersHandler) Index(c *gin.Context) {
	userID := c.Param(userIDParam)
	if !validUserID(userID) {
		abortWithError(c, http.StatusBadRequest, nil, errInvalidUserID)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.ListByUser(reqCtx, userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err, nil)
		return
	}

	if len(orders) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = newOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, response)
}

// Pending GET RouteGroup + UserPendingRoute.
func (o *OrdersHandler) Pending(c *gin.Context) {
	userID := c.Param(userIDParam)
	if !validUserID(userID) {
		abortWithError(c, http.StatusBadRequest, nil, errInvalidUserID)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.PendingForUser(reqCtx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			abortWithError(c, http.StatusNotFound, nil, errNoPendingOrder)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err, nil)
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}
