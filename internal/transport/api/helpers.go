package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

// abortWithError завершает запрос статусом status. err сохраняется как приватная ошибка для лога,
// public (если задана) отдается клиенту в теле ответа.
func abortWithError(c *gin.Context, status int, err error, public error) {
	c.Status(status)
	if err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
	}
	if public != nil {
		_ = c.Error(public).SetType(gin.ErrorTypePublic)
	}
	c.Abort()
}

// UserRequest тело запросов, в которых передается только пользователь.
type UserRequest struct {
	UserID string `json:"user_id" binding:"required,not_blank,max_bytes=128"`
}

type OrderResponse struct {
	ID          uuid.UUID              `json:"id"`
	UserID      string                 `json:"user_id"`
	ProductID   int64                  `json:"product_id"`
	ProductName string                 `json:"product_name"`
	Quantity    int                    `json:"quantity"`
	TotalAmount float64                `json:"total_amount"`
	Commission  *float64               `json:"commission,omitempty"`
	Status      domain.OrderStatusType `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func newOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		ProductID:   order.ProductID,
		ProductName: order.ProductName,
		Quantity:    order.Quantity,
		TotalAmount: order.TotalAmount.InexactFloat64(),
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	if order.Commission.Valid {
		commission := order.Commission.Decimal.InexactFloat64()
		resp.Commission = &commission
	}
	return resp
}
