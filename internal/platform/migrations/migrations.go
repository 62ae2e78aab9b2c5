package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the order lifecycle schema.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&itemRecord{},
		&truckRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&deliveryRecord{},
		&deliveryTruckRecord{},
		&idempotencyKeyRecord{},
	)
}

// The records below mirror the orders Postgres adapter.

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

type deliveryTruckRecord struct {
	ID            int64     `gorm:"primaryKey;column:id"`
	DeliveryID    int64     `gorm:"column:delivery_id;index"`
	TruckID       int64     `gorm:"column:truck_id;uniqueIndex:idx_delivery_trucks_truck_date"`
	ScheduledDate time.Time `gorm:"column:scheduled_date;type:date;uniqueIndex:idx_delivery_trucks_truck_date"`
}

func (deliveryTruckRecord) TableName() string { return "delivery_trucks" }

type idempotencyKeyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyKeyRecord) TableName() string { return "order_idempotency_keys" }
