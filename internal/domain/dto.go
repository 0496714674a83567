package domain

type OrderStatusType string

const (
	OrderStatusPending   OrderStatusType = "pending"
	OrderStatusCompleted OrderStatusType = "completed"
	OrderStatusCancelled OrderStatusType = "cancelled"
)

// orderTransitions перечисляет допустимые переходы статусов заказа.
var orderTransitions = map[OrderStatusType][]OrderStatusType{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo проверяет, допустим ли переход заказа из статуса from в статус to.
func CanTransitionTo(from, to OrderStatusType) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type OutboxStatusType string

const (
	OutboxStatusPending OutboxStatusType = "pending"
	OutboxStatusSent    OutboxStatusType = "sent"
	OutboxStatusFailed  OutboxStatusType = "failed"
)

// CommissionModeType показывает, по какой модели была посчитана комиссия.
type CommissionModeType string

const (
	CommissionModeVip    CommissionModeType = "vip_rate"
	CommissionModeCustom CommissionModeType = "custom_range"
)
