package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var _ ports.Store = (*Store)(nil)

// Store persists orders, inventory, trucks and deliveries in PostgreSQL
// using GORM. The connection must be opened with TranslateError enabled so
// unique violations surface as gorm.ErrDuplicatedKey. Calendar dates are
// compared as YYYY-MM-DD literals so the session time zone never shifts them.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed store. Caller manages DB lifecycle and schema.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type itemRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	Name          string          `gorm:"column:name"`
	SKU           string          `gorm:"column:sku;uniqueIndex"`
	Description   string          `gorm:"column:description"`
	Quantity      int             `gorm:"column:quantity;check:chk_items_quantity_non_negative,quantity >= 0"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	PackageVolume float64         `gorm:"column:package_volume"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (itemRecord) TableName() string { return "items" }

type truckRecord struct {
	ID              int64     `gorm:"primaryKey;column:id"`
	ChassisNumber   string    `gorm:"column:chassis_number;uniqueIndex"`
	LicensePlate    string    `gorm:"column:license_plate;uniqueIndex"`
	ContainerVolume float64   `gorm:"column:container_volume"`
	Available       bool      `gorm:"column:available"`
	DriverName      string    `gorm:"column:driver_name"`
	Notes           string    `gorm:"column:notes"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (truckRecord) TableName() string { return "trucks" }

type orderRecord struct {
	ID             int64             `gorm:"primaryKey;column:id"`
	OrderNumber    string            `gorm:"column:order_number;uniqueIndex"`
	ClientUsername string            `gorm:"column:client_username;index"`
	Status         string            `gorm:"column:status;type:varchar(32);index"`
	SubmittedAt    *time.Time        `gorm:"column:submitted_at;index"`
	DeadlineDate   time.Time         `gorm:"column:deadline_date;type:date"`
	DeclineReason  string            `gorm:"column:decline_reason"`
	Items          []orderItemRecord `gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time         `gorm:"column:created_at;index"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID                int64           `gorm:"primaryKey;column:id"`
	OrderID           int64           `gorm:"column:order_id;index"`
	ItemID            int64           `gorm:"column:item_id;index"`
	Item              *itemRecord     `gorm:"foreignKey:ItemID"`
	RequestedQuantity int             `gorm:"column:requested_quantity"`
	PriceAtOrder      decimal.Decimal `gorm:"column:price_at_order;type:numeric(12,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type deliveryRecord struct {
	ID            int64         `gorm:"primaryKey;column:id"`
	OrderID       int64         `gorm:"column:order_id;uniqueIndex"`
	ScheduledDate time.Time     `gorm:"column:scheduled_date;type:date;index"`
	TruckIDs      pq.Int64Array `gorm:"column:truck_ids;type:bigint[]"`
	TotalVolume   float64       `gorm:"column:total_volume"`
	Completed     bool          `gorm:"column:completed;index"`
	CompletedAt   *time.Time    `gorm:"column:completed_at"`
	Notes         string        `gorm:"column:notes"`
	CreatedAt     time.Time     `gorm:"column:created_at"`
	UpdatedAt     time.Time     `gorm:"column:updated_at"`
}

func (deliveryRecord) TableName() string { return "deliveries" }

// deliveryTruckRecord is one (truck, date) booking. The unique index is what
// makes two concurrent schedulings of the same truck and date impossible.
type deliveryTruckRecord struct {
	ID            int64     `gorm:"primaryKey;column:id"`
	DeliveryID    int64     `gorm:"column:delivery_id;index"`
	TruckID       int64     `gorm:"column:truck_id;uniqueIndex:idx_delivery_trucks_truck_date"`
	ScheduledDate time.Time `gorm:"column:scheduled_date;type:date;uniqueIndex:idx_delivery_trucks_truck_date"`
}

func (deliveryTruckRecord) TableName() string { return "delivery_trucks" }

// SaveItem inserts or updates a catalog item.
func (s *Store) SaveItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	record := toItemRecord(item)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":           record.Name,
				"sku":            record.SKU,
				"description":    record.Description,
				"quantity":       record.Quantity,
				"unit_price":     record.UnitPrice,
				"package_volume": record.PackageVolume,
				"updated_at":     gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return s.GetItem(ctx, record.ID)
}

// SaveTruck inserts or updates a truck.
func (s *Store) SaveTruck(ctx context.Context, truck domain.Truck) (*domain.Truck, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	record := toTruckRecord(truck)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"chassis_number":   record.ChassisNumber,
				"license_plate":    record.LicensePlate,
				"container_volume": record.ContainerVolume,
				"available":        record.Available,
				"driver_name":      record.DriverName,
				"notes":            record.Notes,
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return s.GetTruck(ctx, record.ID)
}

// GetOrder loads an order with its lines, item snapshots and delivery.
func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var record orderRecord
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_items.id") }).
		Preload("Items.Item").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	order := record.toDomain()

	var delivery deliveryRecord
	err = db.Where("order_id = ?", id).Limit(1).Find(&delivery).Error
	if err != nil {
		return nil, err
	}
	if delivery.ID != 0 {
		if order.Delivery, err = s.hydrate(ctx, delivery); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CreateOrder inserts the order and its lines.
func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	items := record.Items
	record.Items = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}
		return insertOrderItems(tx, record.ID, items)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, record.ID)
}

// SaveOrder writes the order's scalar fields.
func (s *Store) SaveOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	result := s.db.WithContext(ctx).
		Model(&orderRecord{ID: order.ID}).
		Select("status", "submitted_at", "deadline_date", "decline_reason", "updated_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return s.GetOrder(ctx, order.ID)
}

// ReplaceOrderItems swaps the order's lines for items.
func (s *Store) ReplaceOrderItems(ctx context.Context, orderID int64, items []domain.OrderItem) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderRecord{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ports.ErrNotFound
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&orderItemRecord{}).Error; err != nil {
			return err
		}
		records := make([]orderItemRecord, 0, len(items))
		for _, item := range items {
			records = append(records, toOrderItemRecord(orderID, item))
		}
		return insertOrderItems(tx, orderID, records)
	})
}

// ListOrders pages through orders matching filter. Each order carries its
// lines and delivery, loaded with one query per association.
func (s *Store) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, int64, error) {
	if err := s.ensureDB(); err != nil {
		return nil, 0, err
	}
	db := s.db.WithContext(ctx)
	query := db.Model(&orderRecord{})
	if filter.ClientUsername != "" {
		query = query.Where("client_username = ?", filter.ClientUsername)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case ports.SortBySubmitted:
		query = query.Order("submitted_at DESC NULLS LAST").Order("id DESC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var records []orderRecord
	err := query.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_items.id") }).
		Preload("Items.Item").
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.toDomain())
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return orders, total, nil
	}
	var deliveries []deliveryRecord
	if err := db.Where("order_id IN ?", ids).Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}
	byOrder := make(map[int64]deliveryRecord, len(deliveries))
	for _, d := range deliveries {
		byOrder[d.OrderID] = d
	}
	for _, order := range orders {
		if d, ok := byOrder[order.ID]; ok {
			if order.Delivery, err = s.hydrate(ctx, d); err != nil {
				return nil, 0, err
			}
		}
	}
	return orders, total, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record itemRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	item := record.toDomain()
	return &item, nil
}

// ReserveItemQuantity decrements quantity in a single conditional UPDATE.
// Concurrent callers are serialized by the row lock; the WHERE clause is
// re-evaluated against the committed value, so quantity never goes negative.
func (s *Store) ReserveItemQuantity(ctx context.Context, itemID int64, amount int) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	result := s.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ? AND quantity >= ?", itemID, amount).
		UpdateColumns(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestockItemQuantity adds amount back to the item's quantity.
func (s *Store) RestockItemQuantity(ctx context.Context, itemID int64, amount int) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ?", itemID).
		UpdateColumns(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) GetTruck(ctx context.Context, id int64) (*domain.Truck, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record truckRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	truck := record.toDomain()
	return &truck, nil
}

func (s *Store) ListTrucks(ctx context.Context) ([]domain.Truck, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []truckRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	trucks := make([]domain.Truck, 0, len(records))
	for _, r := range records {
		trucks = append(trucks, r.toDomain())
	}
	return trucks, nil
}

func (s *Store) FindDeliveriesByTruckAndDate(ctx context.Context, truckID int64, date time.Time) ([]*domain.Delivery, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []deliveryRecord
	err := s.db.WithContext(ctx).
		Joins("JOIN delivery_trucks ON delivery_trucks.delivery_id = deliveries.id").
		Where("delivery_trucks.truck_id = ? AND delivery_trucks.scheduled_date = ?", truckID, domain.FormatDate(date)).
		Order("deliveries.id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, records)
}

func (s *Store) BookedTruckIDs(ctx context.Context, date time.Time) ([]int64, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&deliveryTruckRecord{}).
		Where("scheduled_date = ?", domain.FormatDate(date)).
		Order("truck_id").
		Pluck("truck_id", &ids).Error
	return ids, err
}

// CreateDelivery stores the delivery and one booking row per truck. A
// booking that collides with another delivery yields ports.ErrBookingConflict.
func (s *Store) CreateDelivery(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, errors.New("delivery is nil")
	}
	record := toDeliveryRecord(delivery)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderRecord{}).Where("id = ?", record.OrderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ports.ErrNotFound
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		bookings := make([]deliveryTruckRecord, 0, len(record.TruckIDs))
		for _, truckID := range record.TruckIDs {
			bookings = append(bookings, deliveryTruckRecord{DeliveryID: record.ID, TruckID: truckID, ScheduledDate: record.ScheduledDate})
		}
		if len(bookings) == 0 {
			return nil
		}
		return tx.Create(&bookings).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("delivery for order %d on %s: %w", record.OrderID, domain.FormatDate(record.ScheduledDate), ports.ErrBookingConflict)
	}
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, record)
}

// SaveDelivery writes the completion fields and notes.
func (s *Store) SaveDelivery(ctx context.Context, delivery *domain.Delivery) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if delivery == nil {
		return errors.New("delivery is nil")
	}
	result := s.db.WithContext(ctx).
		Model(&deliveryRecord{ID: delivery.ID}).
		Select("completed", "completed_at", "notes", "updated_at").
		Updates(&deliveryRecord{
			Completed:   delivery.Completed,
			CompletedAt: delivery.CompletedAt,
			Notes:       delivery.Notes,
			UpdatedAt:   time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DeleteDelivery removes the delivery together with its booking rows.
func (s *Store) DeleteDelivery(ctx context.Context, id int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("delivery_id = ?", id).Delete(&deliveryTruckRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&deliveryRecord{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListDueDeliveries(ctx context.Context, date time.Time) ([]*domain.Delivery, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []deliveryRecord
	err := s.db.WithContext(ctx).
		Where("completed = ? AND scheduled_date <= ?", false, domain.FormatDate(date)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, records)
}

// WithinTransaction runs fn inside a database transaction. Nested calls use savepoints.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) hydrateAll(ctx context.Context, records []deliveryRecord) ([]*domain.Delivery, error) {
	deliveries := make([]*domain.Delivery, 0, len(records))
	for _, r := range records {
		d, err := s.hydrate(ctx, r)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (s *Store) hydrate(ctx context.Context, record deliveryRecord) (*domain.Delivery, error) {
	delivery := record.toDomain()
	if len(record.TruckIDs) == 0 {
		return delivery, nil
	}
	var trucks []truckRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", []int64(record.TruckIDs)).Order("id").Find(&trucks).Error; err != nil {
		return nil, err
	}
	for _, t := range trucks {
		delivery.Trucks = append(delivery.Trucks, t.toDomain())
	}
	return delivery, nil
}

func insertOrderItems(tx *gorm.DB, orderID int64, items []orderItemRecord) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
		items[i].Item = nil
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order store not configured")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	return err
}

func toItemRecord(item domain.Item) itemRecord {
	return itemRecord{
		ID:            item.ID,
		Name:          item.Name,
		SKU:           item.SKU,
		Description:   item.Description,
		Quantity:      item.Quantity,
		UnitPrice:     item.UnitPrice,
		PackageVolume: item.PackageVolume,
	}
}

func (r itemRecord) toDomain() domain.Item {
	return domain.Item{
		ID:            r.ID,
		Name:          r.Name,
		SKU:           r.SKU,
		Description:   r.Description,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		PackageVolume: r.PackageVolume,
	}
}

func toTruckRecord(truck domain.Truck) truckRecord {
	return truckRecord{
		ID:              truck.ID,
		ChassisNumber:   truck.ChassisNumber,
		LicensePlate:    truck.LicensePlate,
		ContainerVolume: truck.ContainerVolume,
		Available:       truck.Available,
		DriverName:      truck.DriverName,
		Notes:           truck.Notes,
	}
}

func (r truckRecord) toDomain() domain.Truck {
	return domain.Truck{
		ID:              r.ID,
		ChassisNumber:   r.ChassisNumber,
		LicensePlate:    r.LicensePlate,
		ContainerVolume: r.ContainerVolume,
		Available:       r.Available,
		DriverName:      r.DriverName,
		Notes:           r.Notes,
	}
}

func toOrderRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		ClientUsername: order.ClientUsername,
		Status:         string(order.Status),
		SubmittedAt:    order.SubmittedAt,
		DeadlineDate:   domain.DateOf(order.DeadlineDate),
		DeclineReason:  order.DeclineReason,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	for _, item := range order.Items {
		rec.Items = append(rec.Items, toOrderItemRecord(order.ID, item))
	}
	return rec
}

func toOrderItemRecord(orderID int64, item domain.OrderItem) orderItemRecord {
	return orderItemRecord{
		ID:                item.ID,
		OrderID:           orderID,
		ItemID:            item.ItemID,
		RequestedQuantity: item.RequestedQuantity,
		PriceAtOrder:      item.PriceAtOrder,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		ClientUsername: r.ClientUsername,
		Status:         domain.OrderStatus(r.Status),
		SubmittedAt:    r.SubmittedAt,
		DeadlineDate:   domain.DateOf(r.DeadlineDate),
		DeclineReason:  r.DeclineReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, line := range r.Items {
		item := domain.OrderItem{
			ID:                line.ID,
			ItemID:            line.ItemID,
			RequestedQuantity: line.RequestedQuantity,
			PriceAtOrder:      line.PriceAtOrder,
		}
		if line.Item != nil {
			snapshot := line.Item.toDomain()
			item.Item = &snapshot
		}
		order.Items = append(order.Items, item)
	}
	return order
}

func toDeliveryRecord(d *domain.Delivery) deliveryRecord {
	return deliveryRecord{
		ID:            d.ID,
		OrderID:       d.OrderID,
		ScheduledDate: domain.DateOf(d.ScheduledDate),
		TruckIDs:      pq.Int64Array(d.TruckIDs),
		TotalVolume:   d.TotalVolume,
		Completed:     d.Completed,
		CompletedAt:   d.CompletedAt,
		Notes:         d.Notes,
	}
}

func (r deliveryRecord) toDomain() *domain.Delivery {
	return &domain.Delivery{
		ID:            r.ID,
		OrderID:       r.OrderID,
		ScheduledDate: domain.DateOf(r.ScheduledDate),
		TruckIDs:      append([]int64(nil), r.TruckIDs...),
		TotalVolume:   r.TotalVolume,
		Completed:     r.Completed,
		CompletedAt:   r.CompletedAt,
		Notes:         r.Notes,
	}
}
