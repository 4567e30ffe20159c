package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/inventory-dashboard/internal/adapter/repo"
	"github.com/example/inventory-dashboard/internal/domain"
)

func TestIngestOrderLog(t *testing.T) {
	s := repo.NewMemoryStore()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc := IngestOrderLog{Repo: s, Clock: fixedClock{now}, DefaultSource: "orders"}
	ctx := context.Background()

	msg := []byte(`{"id":42,"order_id":"A-1","item_name":"widget","quantity":2,"unit_price":"1.50","order_type":"demo"}`)
	for i := 0; i < 2; i++ {
		if err := uc.Execute(ctx, msg); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	logs, _ := s.OrderLogsAfter(ctx, 0, 10)
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1 after redelivery", len(logs))
	}
	if logs[0].ID != 1 || logs[0].Source != "orders" || !logs[0].CreatedAt.Equal(now) {
		t.Errorf("log = %+v", logs[0])
	}
}

func TestIngestOrderLogValidation(t *testing.T) {
	uc := IngestOrderLog{Repo: repo.NewMemoryStore()}
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"no order id", `{"item_name":"w","quantity":1,"unit_price":"1"}`},
		{"no item", `{"order_id":"A","quantity":1,"unit_price":"1"}`},
		{"zero qty", `{"order_id":"A","item_name":"w","quantity":0,"unit_price":"1"}`},
		{"negative price", `{"order_id":"A","item_name":"w","quantity":1,"unit_price":"-2"}`},
		{"sub-cent price", `{"order_id":"A","item_name":"w","quantity":1,"unit_price":"0.125"}`},
		{"price overflow", `{"order_id":"A","item_name":"w","quantity":1,"unit_price":"1000000000000"}`},
		{"unknown type", `{"order_id":"A","item_name":"w","quantity":1,"unit_price":"1","order_type":"gift"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := uc.Execute(context.Background(), []byte(tt.raw)); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}
