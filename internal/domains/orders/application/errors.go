package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant or a transition guard.
	ErrInvalidInput = errors.New("invalid order request")
)

// ErrorKind classifies failures for retry and transport decisions.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindNotFound
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	default:
		return "TransientError"
	}
}

// Retryable reports whether another attempt could change the outcome.
func (k ErrorKind) Retryable() bool { return k == KindTransient }

// Classify maps err onto the failure taxonomy. Anything not recognised is transient.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindTransient
	case errors.Is(err, ports.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), isDomainViolation(err):
		return KindValidation
	default:
		return KindTransient
	}
}

var domainViolations = []error{
	domain.ErrNoItems,
	domain.ErrInvalidQuantity,
	domain.ErrUnknownStatus,
	domain.ErrInvalidStatus,
	domain.ErrMissingClient,
	domain.ErrDeadlinePassed,
	domain.ErrDeliveryDateTooEarly,
	domain.ErrDeliveryOnWeekend,
	domain.ErrNoTrucks,
	domain.ErrTruckAlreadyBooked,
	domain.ErrTruckUnavailable,
	domain.ErrInsufficientCapacity,
	domain.ErrInsufficientInventory,
	domain.ErrDeliveryMismatch,
	domain.ErrNoDelivery,
	domain.ErrInvalidWindow,
}

func isDomainViolation(err error) bool {
	for _, target := range domainViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isDomainViolation(err) && !errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
