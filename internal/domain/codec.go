package domain

import (
	"math"
	"time"

	"kedaiku/backend/internal/store"
)

// Decoders turn raw store documents into typed entities. Field names follow
// the document schema of the hosted console, which mixes snake_case with the
// one legacy camelCase field (totalAmount); keep them as-is so existing data
// stays readable.

func DecodeInventoryItem(doc store.Document) InventoryItem {
	return InventoryItem{
		ID:       doc.Key,
		Name:     stringField(doc.Fields, "name"),
		Quantity: Money(numberField(doc.Fields, "quantity")),
		Price:    Money(numberField(doc.Fields, "price")),
	}
}

func DecodeAddOn(doc store.Document) AddOn {
	return AddOn{
		ID:    doc.Key,
		Name:  stringField(doc.Fields, "name"),
		Value: Money(numberField(doc.Fields, "value")),
	}
}

func DecodeOrder(doc store.Document) Order {
	return Order{
		ID:           doc.Key,
		CustomerName: stringField(doc.Fields, "customer_name"),
		RoomNumber:   stringField(doc.Fields, "room_number"),
		ProductID:    stringField(doc.Fields, "product_id"),
		AddOnID:      stringField(doc.Fields, "add_on_id"),
		Quantity:     intField(doc.Fields, "quantity"),
		PaymentType:  stringField(doc.Fields, "payment_type"),
		OrderType:    stringField(doc.Fields, "order_type"),
		Status:       stringField(doc.Fields, "status"),
		OrderDate:    timeField(doc.Fields, "order_date"),
		TotalAmount:  Money(numberField(doc.Fields, "totalAmount")),
	}
}

func DecodeExpense(doc store.Document) Expense {
	return Expense{
		ID:    doc.Key,
		Name:  stringField(doc.Fields, "name"),
		Price: Money(numberField(doc.Fields, "price")),
		Date:  timeField(doc.Fields, "date"),
	}
}

func DecodeUser(doc store.Document) UserAccount {
	return UserAccount{
		Username:  stringField(doc.Fields, "username"),
		Password:  stringField(doc.Fields, "password"),
		Role:      stringField(doc.Fields, "role"),
		Active:    boolField(doc.Fields, "active"),
		CreatedAt: timeField(doc.Fields, "created_at"),
	}
}

// Patch appliers merge a partial field map into an existing entity, leaving
// untouched fields alone. Identity is never part of a patch.

func ApplyInventoryPatch(item InventoryItem, patch map[string]any) InventoryItem {
	if v, ok := patch["name"]; ok {
		item.Name = asString(v)
	}
	if v, ok := patch["quantity"]; ok {
		item.Quantity = Money(asNumber(v))
	}
	if v, ok := patch["price"]; ok {
		item.Price = Money(asNumber(v))
	}
	return item
}

func ApplyAddOnPatch(addOn AddOn, patch map[string]any) AddOn {
	if v, ok := patch["name"]; ok {
		addOn.Name = asString(v)
	}
	if v, ok := patch["value"]; ok {
		addOn.Value = Money(asNumber(v))
	}
	return addOn
}

func ApplyOrderPatch(order Order, patch map[string]any) Order {
	if v, ok := patch["status"]; ok {
		order.Status = asString(v)
	}
	return order
}

func ApplyExpensePatch(expense Expense, patch map[string]any) Expense {
	if v, ok := patch["name"]; ok {
		expense.Name = asString(v)
	}
	if v, ok := patch["price"]; ok {
		expense.Price = Money(asNumber(v))
	}
	if v, ok := patch["date"]; ok {
		expense.Date = asTime(v)
	}
	return expense
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	return asString(v)
}

func numberField(fields map[string]any, key string) float64 {
	v, ok := fields[key]
	if !ok {
		return math.NaN()
	}
	return asNumber(v)
}

func intField(fields map[string]any, key string) int {
	f := numberField(fields, key)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func timeField(fields map[string]any, key string) time.Time {
	v, ok := fields[key]
	if !ok {
		return time.Time{}
	}
	return asTime(v)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return math.NaN()
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
