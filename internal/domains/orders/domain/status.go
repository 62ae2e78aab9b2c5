package domain

import "fmt"

// OrderStatus is the persisted lifecycle position of an order.
type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "CREATED"
	OrderStatusAwaitingApproval OrderStatus = "AWAITING_APPROVAL"
	OrderStatusApproved         OrderStatus = "APPROVED"
	OrderStatusDeclined         OrderStatus = "DECLINED"
	OrderStatusUnderDelivery    OrderStatus = "UNDER_DELIVERY"
	OrderStatusFulfilled        OrderStatus = "FULFILLED"
	OrderStatusCanceled         OrderStatus = "CANCELED"
)

// Valid reports whether s is a known persisted status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusAwaitingApproval, OrderStatusApproved, OrderStatusDeclined,
		OrderStatusUnderDelivery, OrderStatusFulfilled, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

// WorkflowStatus is the execution cursor of an order workflow instance.
// It extends OrderStatus with the two transient states entered while a
// transition's activities are running.
type WorkflowStatus string

const (
	WorkflowCreated          WorkflowStatus = "CREATED"
	WorkflowSubmitted        WorkflowStatus = "SUBMITTED"
	WorkflowAwaitingApproval WorkflowStatus = "AWAITING_APPROVAL"
	WorkflowApproved         WorkflowStatus = "APPROVED"
	WorkflowDeclined         WorkflowStatus = "DECLINED"
	WorkflowScheduled        WorkflowStatus = "SCHEDULED"
	WorkflowUnderDelivery    WorkflowStatus = "UNDER_DELIVERY"
	WorkflowFulfilled        WorkflowStatus = "FULFILLED"
	WorkflowCanceled         WorkflowStatus = "CANCELED"
)

// Terminal reports whether no further transition can leave s.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowFulfilled || s == WorkflowCanceled
}

// WorkflowStatusFor returns the cursor an instance resumes from when only the
// persisted order status is known.
func WorkflowStatusFor(status OrderStatus) WorkflowStatus {
	switch status {
	case OrderStatusAwaitingApproval:
		return WorkflowAwaitingApproval
	case OrderStatusApproved:
		return WorkflowApproved
	case OrderStatusDeclined:
		return WorkflowDeclined
	case OrderStatusUnderDelivery:
		return WorkflowUnderDelivery
	case OrderStatusFulfilled:
		return WorkflowFulfilled
	case OrderStatusCanceled:
		return WorkflowCanceled
	default:
		return WorkflowCreated
	}
}
