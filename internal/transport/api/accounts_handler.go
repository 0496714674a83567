package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

type AccountsHandler struct {
	svs AccountServicer
}

func NewAccountsHandler(svs AccountServicer) *AccountsHandler {
	return &AccountsHandler{
		svs: svs,
	}
}

type CommissionRangeResponse struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type AccountResponse struct {
	UserID           string                   `json:"user_id"`
	Balance          float64                  `json:"balance"`
	VipLevel         int                      `json:"vip_level"`
	EffectiveLevel   int                      `json:"effective_vip_level"`
	CommissionRate   float64                  `json:"commission_rate"`
	CustomCommission *CommissionRangeResponse `json:"custom_commission,omitempty"`
}

// Show GET RouteGroup + UserAccountRoute.
func (a *AccountsHandler) Show(c *gin.Context) {
	userID := c.Param(userIDParam)
	if !validUserID(userID) {
		abortWithError(c, http.StatusBadRequest, nil, errInvalidUserID)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	view, err := a.svs.Get(reqCtx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			abortWithError(c, http.StatusNotFound, nil, domain.ErrAccountNotFound)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err, nil)
		return
	}

	resp := AccountResponse{
		UserID:         view.Account.UserID,
		Balance:        view.Account.Balance.InexactFloat64(),
		VipLevel:       view.Account.VipLevel,
		EffectiveLevel: view.EffectiveLevel,
		CommissionRate: view.CommissionRate.InexactFloat64(),
	}
	if view.CustomCommission != nil {
		resp.CustomCommission = &CommissionRangeResponse{
			Min: view.CustomCommission.Min.InexactFloat64(),
			Max: view.CustomCommission.Max.InexactFloat64(),
		}
	}
	c.JSON(http.StatusOK, resp)
}
