package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleUser   = "user"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	Provider     string    `gorm:"not null;default:local"   json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

const (
	ProductStatusActive = "active"
	ProductStatusClosed = "closed"
)

type Product struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string          `gorm:"not null"                 json:"title"`
	Description    string          `gorm:"not null"                 json:"description"`
	Location       string          `json:"location"`
	RunningMinutes uint            `json:"running_minutes"`
	Price          float64         `gorm:"not null"                 json:"price"`
	Status         string          `gorm:"not null;default:active"  json:"status"`
	HostID         uint            `gorm:"index;not null"           json:"host_id"`
	Options        []ProductOption `gorm:"foreignKey:ProductID"     json:"options,omitempty"`
	Photos         []ProductPhoto  `gorm:"foreignKey:ProductID"     json:"photos,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductOption is a bookable variant of a product (a date slot, a party size
// and so on). Options referenced by order items are never hard-deleted; they
// are retired by setting IsOld instead.
type ProductOption struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"product_id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Price     float64   `gorm:"not null"                 json:"price"`
	Date      time.Time `json:"date"`
	MaxCount  uint      `json:"max_count"`
	IsOld     bool      `gorm:"default:false"            json:"is_old"`
}

type ProductPhoto struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	URL       string `gorm:"not null"                 json:"url"`
	Sort      int    `gorm:"default:0"                json:"sort"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type ProductCategory struct {
	ProductID  uint `gorm:"primaryKey" json:"product_id"`
	CategoryID uint `gorm:"primaryKey" json:"category_id"`
}

type Hashtag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type ProductHashtag struct {
	ProductID uint `gorm:"primaryKey" json:"product_id"`
	HashtagID uint `gorm:"primaryKey" json:"hashtag_id"`
}

const (
	EventStatusUpcoming = "upcoming"
	EventStatusOpen     = "open"
	EventStatusClosed   = "closed"
)

type Event struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title     string       `gorm:"not null"                  json:"title"`
	Body      string       `json:"body"`
	Status    string       `gorm:"not null;default:upcoming" json:"status"`
	StartAt   time.Time    `gorm:"not null"                  json:"start_at"`
	EndAt     time.Time    `gorm:"not null"                  json:"end_at"`
	Photos    []EventPhoto `gorm:"foreignKey:EventID"        json:"photos,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type EventPhoto struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID uint   `gorm:"index;not null"           json:"event_id"`
	URL     string `gorm:"not null"                 json:"url"`
	Sort    int    `gorm:"default:0"                json:"sort"`
}

type EventProduct struct {
	EventID   uint `gorm:"primaryKey" json:"event_id"`
	ProductID uint `gorm:"primaryKey" json:"product_id"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order belongs either to a registered user (UserID set) or to a non-member
// identified by the orderer contact columns.
type Order struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *uint       `gorm:"index"                    json:"user_id,omitempty"`
	OrdererName  string      `json:"orderer_name"`
	OrdererPhone string      `json:"orderer_phone"`
	OrdererEmail string      `json:"orderer_email"`
	ProductID    uint        `gorm:"index;not null"           json:"product_id"`
	CouponID     *uint       `json:"coupon_id,omitempty"`
	Status       string      `gorm:"not null;default:pending" json:"status"`
	TotalPrice   float64     `gorm:"not null"                 json:"total_price"`
	Items        []OrderItem `gorm:"foreignKey:OrderID"       json:"items,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID  uint    `gorm:"index;not null"           json:"order_id"`
	OptionID uint    `gorm:"index;not null"           json:"option_id"`
	Count    uint    `gorm:"not null;default:1"       json:"count"`
	Price    float64 `gorm:"not null"                 json:"price"`
}

const (
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

type Payment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    uint      `gorm:"uniqueIndex;not null"     json:"order_id"`
	Amount     float64   `gorm:"not null"                 json:"amount"`
	Method     string    `gorm:"not null"                 json:"method"`
	PgProvider string    `json:"pg_provider"`
	PgTID      string    `json:"pg_tid"`
	Status     string    `gorm:"not null;default:paid"    json:"status"`
	PaidAt     time.Time `json:"paid_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review attaches to either a payment (product review) or an event, and may
// reference a parent review for threaded replies.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID *uint     `gorm:"index"                    json:"payment_id,omitempty"`
	EventID   *uint     `gorm:"index"                    json:"event_id,omitempty"`
	AuthorID  uint      `gorm:"index;not null"           json:"author_id"`
	ParentID  *uint     `gorm:"index"                    json:"parent_id,omitempty"`
	Score     uint      `json:"score"`
	Text      string    `gorm:"not null"                 json:"text"`
	IsDeleted bool      `gorm:"default:false"            json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Coupon struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null"     json:"code"`
	Name      string    `gorm:"not null"                 json:"name"`
	Discount  float64   `gorm:"not null"                 json:"discount"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	IsUsed    bool      `gorm:"default:false"            json:"is_used"`
	UserID    *uint     `gorm:"index"                    json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the coupon can still be applied to an order.
// Used coupons keep their row, the flag alone decides.
func (c *Coupon) Usable(now time.Time) bool {
	return !c.IsUsed && c.ExpiresAt.After(now)
}

type Magazine struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Content     string    `gorm:"not null"                 json:"content"`
	AuthorID    uint      `gorm:"index;not null"           json:"author_id"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All returns every model registered for auto-migration.
func All() []any {
	return []any{
		&User{}, &RefreshToken{},
		&Product{}, &ProductOption{}, &ProductPhoto{},
		&Category{}, &ProductCategory{}, &Hashtag{}, &ProductHashtag{},
		&Event{}, &EventPhoto{}, &EventProduct{},
		&Order{}, &OrderItem{}, &Payment{},
		&Review{}, &Coupon{}, &Magazine{},
	}
}
