package memory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/repositories"
)

func newTestPicking(id int64, name string) *entities.Picking {
	return &entities.Picking{ID: id, Name: name}
}

func TestPickingRepository_SaveAndGet(t *testing.T) {
	repo := NewPickingRepository(2)

	order := &entities.SaleOrder{ID: 1, Name: "S00001"}
	saleLine := &entities.SaleOrderLine{ID: 7, Order: order, PriceUnit: decimal.NewFromInt(10)}

	picking := newTestPicking(1, "WH/OUT/00001")
	picking.AddMove(&entities.Move{ID: 11, SaleLine: saleLine})
	picking.AddMove(&entities.Move{ID: 12})

	if err := repo.SavePicking(picking); err != nil {
		t.Fatalf("Failed to save picking: %v", err)
	}

	byID, err := repo.GetPicking(1)
	if err != nil {
		t.Fatalf("Failed to get picking: %v", err)
	}
	if byID != picking {
		t.Errorf("Expected the saved picking back")
	}

	byName, err := repo.GetPickingByName("WH/OUT/00001")
	if err != nil {
		t.Fatalf("Failed to get picking by name: %v", err)
	}
	if byName.ID != 1 {
		t.Errorf("Expected picking 1, got %d", byName.ID)
	}

	move, err := repo.GetMove(12)
	if err != nil {
		t.Fatalf("Failed to get move: %v", err)
	}
	if move.Picking != picking {
		t.Errorf("Expected move to point at its picking")
	}

	line, err := repo.GetSaleLine(7)
	if err != nil {
		t.Fatalf("Failed to get sale line: %v", err)
	}
	if line != saleLine {
		t.Errorf("Expected indexed sale line")
	}

	found, _ := repo.FindPickingsBySaleLine(7)
	if len(found) != 1 || found[0] != picking {
		t.Errorf("Expected picking 1 for sale line 7, got %v", found)
	}
}

func TestPickingRepository_NotFound(t *testing.T) {
	repo := NewPickingRepository(0)

	if _, err := repo.GetPicking(99); !errors.Is(err, repositories.ErrPickingNotFound) {
		t.Errorf("Expected ErrPickingNotFound, got %v", err)
	}
	if _, err := repo.GetPickingByName("missing"); !errors.Is(err, repositories.ErrPickingNotFound) {
		t.Errorf("Expected ErrPickingNotFound, got %v", err)
	}
	if _, err := repo.GetMove(99); !errors.Is(err, repositories.ErrMoveNotFound) {
		t.Errorf("Expected ErrMoveNotFound, got %v", err)
	}
	if _, err := repo.GetSaleLine(99); !errors.Is(err, repositories.ErrSaleLineNotFound) {
		t.Errorf("Expected ErrSaleLineNotFound, got %v", err)
	}
}

func TestPickingRepository_DuplicateName(t *testing.T) {
	repo := NewPickingRepository(2)

	if err := repo.SavePicking(newTestPicking(1, "WH/OUT/00001")); err != nil {
		t.Fatalf("Failed to save picking: %v", err)
	}
	if err := repo.SavePicking(newTestPicking(2, "WH/OUT/00001")); err == nil {
		t.Errorf("Expected error for duplicate picking name")
	}
	if err := repo.SavePicking(nil); err == nil {
		t.Errorf("Expected error for nil picking")
	}
}

func TestPickingRepository_Backorders(t *testing.T) {
	repo := NewPickingRepository(3)

	original := newTestPicking(1, "WH/OUT/00001")
	first := newTestPicking(2, "WH/OUT/00002")
	second := newTestPicking(3, "WH/OUT/00003")

	// one link through the parent, one only through BackorderOf
	original.AddBackorder(first)
	second.BackorderOf = original

	if err := repo.LoadPickings([]*entities.Picking{original, first, second}); err != nil {
		t.Fatalf("Failed to load pickings: %v", err)
	}

	backorders, err := repo.Backorders(original)
	if err != nil {
		t.Fatalf("Failed to get backorders: %v", err)
	}
	if len(backorders) != 2 {
		t.Fatalf("Expected 2 backorders, got %d", len(backorders))
	}
	if backorders[0].ID != 2 || backorders[1].ID != 3 {
		t.Errorf("Expected backorders 2 and 3, got %d and %d", backorders[0].ID, backorders[1].ID)
	}

	none, err := repo.Backorders(first)
	if err != nil {
		t.Fatalf("Failed to get backorders: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no backorders, got %d", len(none))
	}

	all, _ := repo.GetAllPickings()
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Errorf("Expected all pickings ordered by ID")
	}
}
