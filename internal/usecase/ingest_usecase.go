package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
)

// IngestOrderLog — сохранить входящее сообщение журнала заказов.
// Повторная доставка того же OrderID ничего не меняет.
type IngestOrderLog struct {
	Repo  domain.OrderLogRepository
	Clock domain.Clock

	DefaultSource string
}

func (uc IngestOrderLog) Execute(ctx context.Context, raw []byte) error {
	var l domain.OrderLog
	if err := json.Unmarshal(raw, &l); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	l.OrderID = strings.TrimSpace(l.OrderID)
	l.ItemName = strings.TrimSpace(l.ItemName)
	if l.OrderID == "" || l.ItemName == "" || l.Quantity <= 0 {
		return domain.ErrValidation
	}
	if !domain.ValidUnitPrice(l.UnitPrice) {
		return fmt.Errorf("%w: unit price %s", domain.ErrValidation, l.UnitPrice)
	}
	if _, ok := domain.ParseTransactionType(l.OrderType); !ok {
		return fmt.Errorf("%w: order type %q", domain.ErrValidation, l.OrderType)
	}
	if l.Source == "" {
		l.Source = uc.DefaultSource
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = uc.now()
	}
	// ID назначает хранилище
	l.ID = 0

	_, err := uc.Repo.AppendOrderLog(ctx, l)
	return err
}

func (uc IngestOrderLog) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now()
}
