package metrics

import (
	"math"
	"testing"

	"kedaiku/backend/internal/domain"
)

func TestSummarizeCountsAndSums(t *testing.T) {
	orders := []domain.Order{
		{ID: "o1", TotalAmount: 400.00},
		{ID: "o2", TotalAmount: 600.00},
	}
	expenses := []domain.Expense{
		{ID: "e1", Price: 200.00},
	}
	inventory := []domain.InventoryItem{
		{ID: "i1", Quantity: 5},
		{ID: "i2", Quantity: 9},
		{ID: "i3", Quantity: 10},
		{ID: "i4", Quantity: 11},
		{ID: "i5", Quantity: 0},
	}

	snapshot := Summarize(orders, expenses, inventory, DefaultOptions())

	if snapshot.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", snapshot.TotalOrders)
	}
	if snapshot.TotalRevenue != 1000.00 {
		t.Fatalf("expected revenue 1000.00, got %v", snapshot.TotalRevenue)
	}
	if snapshot.TotalExpenses != 200.00 {
		t.Fatalf("expected expenses 200.00, got %v", snapshot.TotalExpenses)
	}
	// Profit carries the fixed 2.40 books adjustment: 1000 - (200 - 2.40).
	if snapshot.TotalProfit != 802.40 {
		t.Fatalf("expected profit 802.40, got %v", snapshot.TotalProfit)
	}
	// Strictly below 10: quantities 5, 9 and 0. Exactly 10 does not count.
	if snapshot.LowStockItems != 3 {
		t.Fatalf("expected 3 low stock items, got %d", snapshot.LowStockItems)
	}
}

func TestSummarizeIgnoresNaNAmounts(t *testing.T) {
	orders := []domain.Order{
		{ID: "o1", TotalAmount: 12.50},
		{ID: "o2", TotalAmount: domain.Money(math.NaN())},
	}
	expenses := []domain.Expense{
		{ID: "e1", Price: domain.Money(math.NaN())},
		{ID: "e2", Price: 2.00},
	}

	snapshot := Summarize(orders, expenses, nil, DefaultOptions())

	if snapshot.TotalRevenue != 12.50 {
		t.Fatalf("expected NaN order total to count as zero, got %v", snapshot.TotalRevenue)
	}
	if snapshot.TotalExpenses != 2.00 {
		t.Fatalf("expected NaN expense to count as zero, got %v", snapshot.TotalExpenses)
	}
}

func TestRoundCentsIsHalfUp(t *testing.T) {
	if got := roundCents(0.125); got != 0.13 {
		t.Fatalf("expected 0.125 to round up to 0.13, got %v", got)
	}
	// Half-up means toward positive infinity on ties, so a negative half
	// rounds toward zero; half-away-from-zero would give -0.13.
	if got := roundCents(-0.125); got != -0.12 {
		t.Fatalf("expected -0.125 to round to -0.12, got %v", got)
	}
	if got := roundCents(3.14159); got != 3.14 {
		t.Fatalf("expected 3.14159 to round to 3.14, got %v", got)
	}
}

func TestSummarizeRoundsOnceAtTheEnd(t *testing.T) {
	// Three thirds of a cent: per-item cent rounding would drop all of them,
	// summing first keeps the full cent.
	orders := []domain.Order{
		{ID: "o1", TotalAmount: 1.00375},
		{ID: "o2", TotalAmount: 1.00375},
		{ID: "o3", TotalAmount: 1.00375},
	}

	snapshot := Summarize(orders, nil, nil, Options{LowStockThreshold: 10, ExpenseAdjustment: 0})
	if snapshot.TotalRevenue != 3.01 {
		t.Fatalf("expected single final rounding to yield 3.01, got %v", snapshot.TotalRevenue)
	}
}

func TestSummarizeHonorsConfiguredConstants(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: "i1", Quantity: 3},
		{ID: "i2", Quantity: 7},
	}
	snapshot := Summarize(nil, nil, inventory, Options{LowStockThreshold: 5, ExpenseAdjustment: 1.00})

	if snapshot.LowStockItems != 1 {
		t.Fatalf("expected threshold override to count 1 item, got %d", snapshot.LowStockItems)
	}
	if snapshot.TotalProfit != 1.00 {
		t.Fatalf("expected profit to equal the adjustment with no activity, got %v", snapshot.TotalProfit)
	}
}
