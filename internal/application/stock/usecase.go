package stock

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/projection"
)

// SnapshotSource origen de la proyección vigente (lo satisface syncgw.Refresher).
type SnapshotSource interface {
	Latest(ctx context.Context) (*projection.Result, error)
	Refresh(ctx context.Context) (*projection.Result, error)
}

// StockUseCase consultas de lectura sobre la proyección de saldos.
type StockUseCase struct {
	source SnapshotSource
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(source SnapshotSource) *StockUseCase {
	return &StockUseCase{source: source}
}

// GetStock devuelve la proyección vigente. Con activeOnly se excluyen las
// posiciones con saldo <= 0 (retenidas solo por historia).
func (uc *StockUseCase) GetStock(ctx context.Context, activeOnly bool) (*dto.StockListResponse, error) {
	result, err := uc.source.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return toStockList(result, activeOnly), nil
}

// RefreshStock fuerza un re-pull del libro y el re-fold de la proyección.
func (uc *StockUseCase) RefreshStock(ctx context.Context) (*dto.StockListResponse, error) {
	result, err := uc.source.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return toStockList(result, false), nil
}

// BuildImportItems arma las tuplas de importación para una sesión de toma de
// inventario desde la proyección activa actual (saldos que quedarán congelados
// como SystemBalance).
func (uc *StockUseCase) BuildImportItems(ctx context.Context) ([]dto.ImportedItemDTO, error) {
	result, err := uc.source.Latest(ctx)
	if err != nil {
		return nil, err
	}
	active := result.Active()
	items := make([]dto.ImportedItemDTO, 0, len(active))
	for _, s := range active {
		items = append(items, dto.ImportedItemDTO{
			ItemCode:      s.Key.ItemCode,
			ItemName:      s.ItemName,
			Warehouse:     s.Key.Warehouse,
			Address:       s.Key.Address,
			Unit:          s.Unit,
			SystemBalance: s.Balance,
		})
	}
	return items, nil
}

func toStockList(result *projection.Result, activeOnly bool) *dto.StockListResponse {
	snaps := result.Snapshots
	if activeOnly {
		snaps = result.Active()
	}
	items := make([]dto.StockSnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		items = append(items, toSnapshotResponse(s))
	}
	skipped := make([]dto.SkippedRecordDTO, 0, len(result.Skipped))
	for _, sk := range result.Skipped {
		skipped = append(skipped, dto.SkippedRecordDTO{
			RecordID: sk.RecordID,
			ItemCode: sk.ItemCode,
			Reason:   sk.Reason,
		})
	}
	return &dto.StockListResponse{Items: items, Total: len(items), Skipped: skipped}
}

func toSnapshotResponse(s entity.LocationStockSnapshot) dto.StockSnapshotResponse {
	return dto.StockSnapshotResponse{
		ItemCode:       s.Key.ItemCode,
		Warehouse:      s.Key.Warehouse,
		Address:        s.Key.Address,
		ItemName:       s.ItemName,
		Unit:           s.Unit,
		Balance:        s.Balance,
		MinStock:       s.MinStock,
		LastEntryOn:    s.LastEntryOn,
		LastExitOn:     s.LastExitOn,
		LastCountedOn:  s.LastCountedOn,
		LastCountedQty: s.LastCountedQty,
		Attachments:    s.Attachments,
		IsCritical:     s.IsCritical,
		IsDivergent:    s.IsDivergent,
	}
}
