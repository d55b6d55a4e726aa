package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Money is a monetary or quantity amount as the console's JSON sees it. Bad
// form input can leave NaN behind (kept as-is, a known open issue), and
// encoding/json refuses to encode NaN; it marshals as null here so one junk
// record cannot take down a whole list response.
type Money float64

func (m Money) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Money(f)
	return nil
}

type InventoryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity Money  `json:"quantity"`
	Price    Money  `json:"price"`
}

type AddOn struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value Money  `json:"value"`
}

type Order struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	RoomNumber   string    `json:"room_number,omitempty"`
	ProductID    string    `json:"product_id"`
	AddOnID      string    `json:"add_on_id,omitempty"`
	Quantity     int       `json:"quantity"`
	PaymentType  string    `json:"payment_type"`
	OrderType    string    `json:"order_type"`
	Status       string    `json:"status"`
	OrderDate    time.Time `json:"order_date"`
	TotalAmount  Money     `json:"total_amount"`
}

type Expense struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Price Money     `json:"price"`
	Date  time.Time `json:"date"`
}

// OrderView is an order as the list screen shows it: foreign keys resolved to
// display names and the total re-derived from current prices. The re-derived
// total can diverge from the persisted Order.TotalAmount when prices changed
// after the order was created; that divergence is intentional and the persisted
// amount stays untouched.
type OrderView struct {
	Order
	ProductName string `json:"product_name"`
	AddOnName   string `json:"add_on_name,omitempty"`
	LiveTotal   Money  `json:"live_total"`
}

// Create and update requests carry numeric fields as strings because the
// console submits raw form input; coercion happens in the service layer.
type InventoryCreateRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

type InventoryUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Quantity *string `json:"quantity,omitempty"`
	Price    *string `json:"price,omitempty"`
}

type AddOnCreateRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type AddOnUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}

type OrderCreateRequest struct {
	CustomerName string `json:"customer_name"`
	RoomNumber   string `json:"room_number"`
	ProductID    string `json:"product_id"`
	AddOnID      string `json:"add_on_id"`
	Quantity     int    `json:"quantity"`
	PaymentType  string `json:"payment_type"`
	OrderType    string `json:"order_type"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type ExpenseCreateRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Date  string `json:"date"`
}

type ExpenseUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Price *string `json:"price,omitempty"`
	Date  *string `json:"date,omitempty"`
}

type OrderListResponse struct {
	Orders      []OrderView `json:"orders"`
	GrandTotal  Money       `json:"grand_total"`
	LookupError string      `json:"lookup_error,omitempty"`
}

type ExpenseListResponse struct {
	Expenses []Expense `json:"expenses"`
	Total    Money     `json:"total"`
}

// MetricsSnapshot holds the dashboard headline numbers.
type MetricsSnapshot struct {
	TotalOrders   int     `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	TotalProfit   float64 `json:"total_profit"`
	LowStockItems int     `json:"low_stock_items"`
}

type DashboardResponse struct {
	Metrics      MetricsSnapshot `json:"metrics"`
	RecentOrders []Order         `json:"recent_orders"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	PaymentCash   = "Cash"
	PaymentOnline = "Online"
)

const (
	OrderTypeSelfPickup = "Self Pickup"
	OrderTypeDelivery   = "Delivery"
)

const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// ValidStatus reports whether s is one of the four order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
