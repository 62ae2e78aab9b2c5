package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoItems               = errors.New("order must have at least one item")
	ErrInvalidQuantity       = errors.New("requested quantity must be greater than zero")
	ErrUnknownStatus         = errors.New("order status is invalid")
	ErrInvalidStatus         = errors.New("order status does not allow this action")
	ErrMissingClient         = errors.New("client username is required")
	ErrDeadlinePassed        = errors.New("deadline date must not be in the past")
	ErrDeliveryDateTooEarly  = errors.New("delivery date must be in the future")
	ErrDeliveryOnWeekend     = errors.New("deliveries cannot be scheduled on weekends")
	ErrNoTrucks              = errors.New("at least one truck must be selected")
	ErrTruckAlreadyBooked    = errors.New("truck is already scheduled for delivery")
	ErrTruckUnavailable      = errors.New("truck is not available")
	ErrInsufficientCapacity  = errors.New("selected trucks do not have sufficient capacity")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrDeliveryMismatch      = errors.New("order already has a different delivery scheduled")
	ErrNoDelivery            = errors.New("order has no scheduled delivery")
	ErrInvalidWindow         = errors.New("delivery window must be between 1 and 30 days")
)

// StatusError reports an action attempted from a status that does not allow it.
type StatusError struct {
	Action string
	Status OrderStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Action, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

// InsufficientInventoryError carries the quantities observed after a failed reservation.
type InsufficientInventoryError struct {
	ItemID    int64
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %s (id %d): available %d, requested %d",
		e.ItemName, e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// InsufficientCapacityError compares the volume an order needs with what the trucks hold.
type InsufficientCapacityError struct {
	Required  float64
	Available float64
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("selected trucks do not have sufficient capacity: required %.2f, available %.2f",
		e.Required, e.Available)
}

func (e *InsufficientCapacityError) Unwrap() error { return ErrInsufficientCapacity }

// TruckBookedError names the truck and date that are already taken.
type TruckBookedError struct {
	TruckID int64
	Date    time.Time
}

func (e *TruckBookedError) Error() string {
	return fmt.Sprintf("truck %d is already scheduled for delivery on %s", e.TruckID, FormatDate(e.Date))
}

func (e *TruckBookedError) Unwrap() error { return ErrTruckAlreadyBooked }

// TruckUnavailableError names a truck whose availability flag is off.
type TruckUnavailableError struct {
	TruckID int64
}

func (e *TruckUnavailableError) Error() string {
	return fmt.Sprintf("truck %d is not available", e.TruckID)
}

func (e *TruckUnavailableError) Unwrap() error { return ErrTruckUnavailable }
