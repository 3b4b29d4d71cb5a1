package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

const occurredOnLayout = "2006-01-02"

// Config parámetros del caso de uso.
type Config struct {
	// SentinelActor actor reservado para registros de solo-metadata.
	SentinelActor string
}

// LedgerUseCase escribe sobre el libro de movimientos: entradas, salidas,
// traslados (con pata espejo transaccional), conteos físicos, parches de
// metadata y correcciones que reemplazan registros.
type LedgerUseCase struct {
	txRunner   TxRunner
	ledgerRepo repository.LedgerRepository
	notifier   ChangeNotifier
	cfg        Config
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, ledgerRepo repository.LedgerRepository, notifier ChangeNotifier, cfg Config) *LedgerUseCase {
	if cfg.SentinelActor == "" {
		cfg.SentinelActor = entity.DefaultSentinelActor
	}
	return &LedgerUseCase{txRunner: txRunner, ledgerRepo: ledgerRepo, notifier: notifier, cfg: cfg}
}

// RegisterMovement registra una entrada o salida. Si la salida trae bodega
// destino es un traslado: la pata OUT y su espejo IN en el destino se escriben
// en la misma transacción (invariante del writer, no de la proyección).
func (uc *LedgerUseCase) RegisterMovement(ctx context.Context, actor string, in dto.RegisterMovementRequest) error {
	if in.ItemCode == "" || in.Warehouse == "" || actor == "" {
		return domain.ErrInvalidInput
	}
	if in.Direction != entity.DirectionIn && in.Direction != entity.DirectionOut {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	isTransfer := in.DestWarehouse != ""
	if isTransfer {
		if in.Direction != entity.DirectionOut {
			return domain.ErrInvalidInput
		}
		if in.DestWarehouse == in.Warehouse && in.DestAddress == in.Address {
			return domain.ErrInvalidInput
		}
	}
	occurred, err := parseOccurredOn(in.OccurredOn)
	if err != nil {
		return domain.ErrInvalidInput
	}

	minStock := decimal.Zero
	if in.MinStockHint != nil {
		if in.MinStockHint.IsNegative() {
			return domain.ErrInvalidInput
		}
		minStock = *in.MinStockHint
	}

	out := &entity.MovementRecord{
		ID:            uuid.New().String(),
		OccurredOn:    occurred,
		ItemCode:      in.ItemCode,
		ItemName:      in.ItemName,
		Unit:          in.Unit,
		Kind:          entity.RecordKindMovement,
		Direction:     in.Direction,
		Quantity:      in.Quantity,
		Warehouse:     in.Warehouse,
		Address:       in.Address,
		DestWarehouse: in.DestWarehouse,
		DestAddress:   in.DestAddress,
		MinStockHint:  minStock,
		Attachments:   in.Attachments,
		Actor:         actor,
	}

	if !isTransfer {
		if err := uc.ledgerRepo.Append(out); err != nil {
			return err
		}
		uc.notifier.NotifyLedgerChanged(ctx)
		return nil
	}

	// Traslado: ambas patas o ninguna.
	err = uc.txRunner.Run(ctx, func(repo repository.LedgerRepository) error {
		if err := repo.Append(out); err != nil {
			return err
		}
		mirror := &entity.MovementRecord{
			ID:           uuid.New().String(),
			OccurredOn:   occurred,
			ItemCode:     in.ItemCode,
			ItemName:     in.ItemName,
			Unit:         in.Unit,
			Kind:         entity.RecordKindMovement,
			Direction:    entity.DirectionIn,
			Quantity:     in.Quantity,
			Warehouse:    in.DestWarehouse,
			Address:      in.DestAddress,
			MinStockHint: minStock,
			Actor:        actor,
		}
		return repo.Append(mirror)
	})
	if err != nil {
		return err
	}
	uc.notifier.NotifyLedgerChanged(ctx)
	return nil
}

// RegisterCount registra un conteo físico (toma puntual). La divergencia la
// calcula la proyección contra el saldo al instante del conteo.
func (uc *LedgerUseCase) RegisterCount(ctx context.Context, actor string, in dto.RegisterCountRequest) error {
	if in.ItemCode == "" || in.Warehouse == "" || actor == "" {
		return domain.ErrInvalidInput
	}
	if in.Quantity.IsNegative() {
		return domain.ErrInvalidInput
	}
	occurred, err := parseOccurredOn(in.OccurredOn)
	if err != nil {
		return domain.ErrInvalidInput
	}
	rec := &entity.MovementRecord{
		ID:         uuid.New().String(),
		OccurredOn: occurred,
		ItemCode:   in.ItemCode,
		ItemName:   in.ItemName,
		Unit:       in.Unit,
		Kind:       entity.RecordKindCount,
		Quantity:   in.Quantity,
		Warehouse:  in.Warehouse,
		Address:    in.Address,
		Actor:      actor,
	}
	if err := uc.ledgerRepo.Append(rec); err != nil {
		return err
	}
	uc.notifier.NotifyLedgerChanged(ctx)
	return nil
}

// AttachMetadata registra un parche de solo-metadata: cantidad cero con actor
// centinela, para adjuntar fotos o declarar stock mínimo sin mover saldo.
func (uc *LedgerUseCase) AttachMetadata(ctx context.Context, in dto.AttachMetadataRequest) error {
	if in.ItemCode == "" || in.Warehouse == "" {
		return domain.ErrInvalidInput
	}
	if in.MinStockHint == nil && len(in.Attachments) == 0 {
		return domain.ErrInvalidInput
	}
	minStock := decimal.Zero
	if in.MinStockHint != nil {
		if in.MinStockHint.IsNegative() {
			return domain.ErrInvalidInput
		}
		minStock = *in.MinStockHint
	}
	rec := &entity.MovementRecord{
		ID:           uuid.New().String(),
		OccurredOn:   time.Now().UTC().Truncate(24 * time.Hour),
		ItemCode:     in.ItemCode,
		Kind:         entity.RecordKindMovement,
		Quantity:     decimal.Zero,
		Warehouse:    in.Warehouse,
		Address:      in.Address,
		MinStockHint: minStock,
		Attachments:  in.Attachments,
		Actor:        uc.cfg.SentinelActor,
	}
	if err := uc.ledgerRepo.Append(rec); err != nil {
		return err
	}
	uc.notifier.NotifyLedgerChanged(ctx)
	return nil
}

// CorrectRecord corrige un registro existente. No muta el pasado in-place: el
// store avanza RecordedAt al persistir la corrección ("el más reciente gana").
func (uc *LedgerUseCase) CorrectRecord(ctx context.Context, id string, in dto.CorrectRecordRequest) error {
	rec, err := uc.ledgerRepo.GetByID(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if in.ItemName != nil {
		rec.ItemName = *in.ItemName
	}
	if in.Unit != nil {
		rec.Unit = *in.Unit
	}
	if in.Quantity != nil {
		if in.Quantity.IsNegative() {
			return domain.ErrInvalidInput
		}
		rec.Quantity = *in.Quantity
	}
	if in.OccurredOn != nil {
		occurred, err := parseOccurredOn(*in.OccurredOn)
		if err != nil {
			return domain.ErrInvalidInput
		}
		rec.OccurredOn = occurred
	}
	if in.Address != nil {
		rec.Address = *in.Address
	}
	if in.MinStockHint != nil {
		if in.MinStockHint.IsNegative() {
			return domain.ErrInvalidInput
		}
		rec.MinStockHint = *in.MinStockHint
	}
	if err := uc.ledgerRepo.Update(rec); err != nil {
		return err
	}
	uc.notifier.NotifyLedgerChanged(ctx)
	return nil
}

// DeleteRecord elimina un registro del libro.
func (uc *LedgerUseCase) DeleteRecord(ctx context.Context, id string) error {
	rec, err := uc.ledgerRepo.GetByID(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if err := uc.ledgerRepo.Delete(id); err != nil {
		return err
	}
	uc.notifier.NotifyLedgerChanged(ctx)
	return nil
}

// ListRecords lista el libro con paginación (orden recorded_at, id).
func (uc *LedgerUseCase) ListRecords(limit, offset int) (*dto.LedgerListResponse, error) {
	all, err := uc.ledgerRepo.ListAll()
	if err != nil {
		return nil, err
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	items := make([]dto.MovementRecordResponse, 0, end-offset)
	for _, r := range all[offset:end] {
		items = append(items, toRecordResponse(&r))
	}
	return &dto.LedgerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// GetRecord devuelve un registro por ID.
func (uc *LedgerUseCase) GetRecord(id string) (*dto.MovementRecordResponse, error) {
	rec, err := uc.ledgerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	resp := toRecordResponse(rec)
	return &resp, nil
}

func toRecordResponse(r *entity.MovementRecord) dto.MovementRecordResponse {
	return dto.MovementRecordResponse{
		ID:            r.ID,
		OccurredOn:    r.OccurredOn.Format(occurredOnLayout),
		RecordedAt:    r.RecordedAt,
		ItemCode:      r.ItemCode,
		ItemName:      r.ItemName,
		Unit:          r.Unit,
		Kind:          r.Kind,
		Direction:     r.Direction,
		Quantity:      r.Quantity,
		Warehouse:     r.Warehouse,
		Address:       r.Address,
		DestWarehouse: r.DestWarehouse,
		DestAddress:   r.DestAddress,
		MinStockHint:  r.MinStockHint,
		Attachments:   r.Attachments,
		Actor:         r.Actor,
	}
}

func parseOccurredOn(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse(occurredOnLayout, s)
}
