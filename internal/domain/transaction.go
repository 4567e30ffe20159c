package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType — класс движения товара.
type TransactionType string

const (
	TxSale     TransactionType = "sale"
	TxDemo     TransactionType = "demo"
	TxInternal TransactionType = "internal"
	TxTransfer TransactionType = "transfer"
)

// ParseTransactionType нормализует тип из журнала заказов. Пустое значение — продажа.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TxSale, true
	case TxSale, TxDemo, TxInternal, TxTransfer:
		return t, true
	default:
		return "", false
	}
}

// RevenueBearing — участвует ли тип в подсчёте выручки.
func (t TransactionType) RevenueBearing() bool { return t == TxSale }

// InternalUsage — демо, внутреннее потребление и перемещения.
func (t TransactionType) InternalUsage() bool {
	return t == TxDemo || t == TxInternal || t == TxTransfer
}

// maxUnitPrice — предел NUMERIC(14, 2).
var maxUnitPrice = decimal.New(1, 12)

// ValidUnitPrice — цена неотрицательна, не больше двух знаков после запятой
// и помещается в NUMERIC(14, 2). Иначе БД округлила бы её молча.
func ValidUnitPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThan(maxUnitPrice) && p.Equal(p.Round(2))
}

// Transaction — агрегированная запись, полученная из журнала заказов.
type Transaction struct {
	ID              string          `json:"id"`
	OrderRef        string          `json:"order_ref"`
	ItemName        string          `json:"item_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TransactionType TransactionType `json:"transaction_type"`
	Source          string          `json:"source"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Restock — поступление товара на склад.
type Restock struct {
	ID            string    `json:"id"`
	ItemName      string    `json:"item_name"`
	QuantityAdded int       `json:"quantity_added"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
}

// OrderLog — сырая строка журнала заказов. ID — курсор синхронизации,
// OrderID — естественный ключ.
type OrderLog struct {
	ID        int64           `json:"id"`
	OrderID   string          `json:"order_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	OrderType string          `json:"order_type"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}

// InventoryItem — остаток по товару.
type InventoryItem struct {
	ItemName  string    `json:"item_name"`
	OnHand    int       `json:"on_hand"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevenuePoint — выручка за один день.
type RevenuePoint struct {
	Day          string          `json:"day"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Quantity     int             `json:"quantity"`
}

// RevenueSummary — данные для графика выручки.
type RevenueSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	SalesQuantity int             `json:"sales_quantity"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	Daily         []RevenuePoint  `json:"daily"`
}
