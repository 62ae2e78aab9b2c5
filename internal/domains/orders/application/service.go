package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	"github.com/Apurer/order-lifecycle-service/internal/platform/validation"
)

var _ ports.Service = (*Service)(nil)

// StructValidator checks tagged input structs.
type StructValidator interface {
	Struct(s interface{}) error
}

// Service implements the order use cases that run outside a workflow instance.
type Service struct {
	store      ports.Store
	idem       ports.IdempotencyStore
	scheduler  *DeliveryScheduler
	validate   StructValidator
	now        Clock
	windowDays int
	newSuffix  func() string
}

// ServiceOption customises the service.
type ServiceOption func(*Service)

// WithClock overrides the service clock.
func WithClock(now Clock) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWindowDays sets the feasible-date window used when a request does not name one.
func WithWindowDays(days int) ServiceOption {
	return func(s *Service) {
		if days >= MinWindowDays && days <= MaxWindowDays {
			s.windowDays = days
		}
	}
}

// WithValidator replaces the default input validator.
func WithValidator(v StructValidator) ServiceOption {
	return func(s *Service) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithIdempotencyStore enables replay of creates that carry an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) ServiceOption {
	return func(s *Service) {
		s.idem = store
	}
}

// NewService wires the order service with its store.
func NewService(store ports.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		validate:   validation.New(),
		now:        systemClock,
		windowDays: DefaultWindowDays,
		newSuffix:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.scheduler = NewDeliveryScheduler(store, NewInventoryLedger(store), s.now)
	return s
}

// CreateOrder persists a CREATED order with prices captured from the current items.
// A repeated idempotency key with the same payload returns the order created
// the first time; the same key with a different payload is rejected.
func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*types.OrderProjection, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	var requestHash string
	if s.idem != nil && input.IdempotencyKey != "" {
		hash, err := FingerprintCreateOrder(input)
		if err != nil {
			return nil, err
		}
		requestHash = hash
		existing, err := s.idem.Get(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.RequestHash != requestHash {
				return nil, ports.ErrIdempotencyConflict
			}
			return s.GetOrder(ctx, existing.OrderID)
		}
	}

	items, err := resolveLines(ctx, s.store, input.Lines())
	if err != nil {
		return nil, err
	}
	now := s.now()
	order, err := domain.NewOrder(input.ClientUsername, domain.NewOrderNumber(now, s.newSuffix()), input.DeadlineDate, items, now)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if requestHash != "" {
		saved, err := s.idem.Save(ctx, ports.IdempotencyRecord{
			Key:         input.IdempotencyKey,
			RequestHash: requestHash,
			OrderID:     created.ID,
		})
		if err != nil {
			// A concurrent create won the key; replay its order when the payloads match.
			if errors.Is(err, ports.ErrIdempotencyConflict) && saved != nil && saved.RequestHash == requestHash {
				return s.GetOrder(ctx, saved.OrderID)
			}
			return nil, err
		}
	}
	return types.NewOrderProjection(created), nil
}

// GetOrder loads the persisted order with its items and delivery.
func (s *Service) GetOrder(ctx context.Context, id int64) (*types.OrderProjection, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return types.NewOrderProjection(order), nil
}

// DefaultPageSize is used when a listing does not name a page size.
const DefaultPageSize = 10

// ListClientOrders pages through the orders of one client, newest first.
func (s *Service) ListClientOrders(ctx context.Context, clientUsername string, input types.ListOrdersInput) (*types.OrderPage, error) {
	if clientUsername == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrMissingClient)
	}
	return s.listOrders(ctx, ports.OrderFilter{ClientUsername: clientUsername, Sort: ports.SortByCreated}, input)
}

// ListOrders pages through every order, most recently submitted first.
func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error) {
	return s.listOrders(ctx, ports.OrderFilter{Sort: ports.SortBySubmitted}, input)
}

func (s *Service) listOrders(ctx context.Context, filter ports.OrderFilter, input types.ListOrdersInput) (*types.OrderPage, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, mapError(domain.ErrUnknownStatus)
	}
	size := input.Size
	if size == 0 {
		size = DefaultPageSize
	}
	filter.Status = input.Status
	filter.Limit = size
	filter.Offset = input.Page * size

	orders, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &types.OrderPage{
		Orders:        make([]*types.OrderProjection, 0, len(orders)),
		Page:          input.Page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}
	for _, order := range orders {
		page.Orders = append(page.Orders, types.NewOrderProjection(order))
	}
	return page, nil
}

// AvailableDeliveryDates runs the feasible-date search for an approved order.
func (s *Service) AvailableDeliveryDates(ctx context.Context, input types.AvailableDatesInput) ([]time.Time, error) {
	days := input.Days
	if days == 0 {
		days = s.windowDays
	}
	order, err := s.store.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.Require("search delivery dates for", domain.OrderStatusApproved); err != nil {
		return nil, mapError(err)
	}
	return s.scheduler.FeasibleDates(ctx, order, days)
}
