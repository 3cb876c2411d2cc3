package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// CreateMovementInput datos para crear un borrador.
type CreateMovementInput struct {
	CompanyID          string
	UserID             string
	Type               entity.MovementType
	StoreID            string
	OriginStoreID      string
	DestinationStoreID string
	TotalAmount        decimal.Decimal
	Annotations        string
	Lines              []entity.MovementLine
}

// UpdateDraftInput reemplaza líneas, total y anotaciones de un borrador.
type UpdateDraftInput struct {
	CompanyID   string
	MovementID  string
	TotalAmount decimal.Decimal
	Annotations string
	Lines       []entity.MovementLine
}

// MovementUseCase ciclo de vida de ingresos, salidas y traslados.
type MovementUseCase struct {
	coord     *Coordinator
	movements repository.MovementRepository
	products  repository.ProductRepository
	stores    repository.StoreRepository
	sequencer *CodeSequencer
	log       *logger.Logger
	now       func() time.Time
}

// NewMovementUseCase construye el caso de uso. movements es el repositorio de lectura (fuera de tx).
func NewMovementUseCase(
	coord *Coordinator,
	movements repository.MovementRepository,
	products repository.ProductRepository,
	stores repository.StoreRepository,
	sequencer *CodeSequencer,
	log *logger.Logger,
) *MovementUseCase {
	return &MovementUseCase{
		coord:     coord,
		movements: movements,
		products:  products,
		stores:    stores,
		sequencer: sequencer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj (periodo de códigos y marcas de tiempo).
func (uc *MovementUseCase) WithClock(now func() time.Time) *MovementUseCase {
	uc.now = now
	return uc
}

// CreateDraft crea un documento en DRAFT. Las líneas se validan por completo recién al confirmar.
func (uc *MovementUseCase) CreateDraft(ctx context.Context, in CreateMovementInput) (*entity.Movement, error) {
	if in.CompanyID == "" || in.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, in.Type)
	}
	now := uc.now()
	m := &entity.Movement{
		ID:          uuid.New().String(),
		CompanyID:   in.CompanyID,
		Type:        in.Type,
		State:       entity.StateDraft,
		TotalAmount: in.TotalAmount,
		Annotations: in.Annotations,
		Lines:       append([]entity.MovementLine(nil), in.Lines...),
		CreatedBy:   in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if m.IsTransfer() {
		m.OriginStoreID = in.OriginStoreID
		m.DestinationStoreID = in.DestinationStoreID
	} else {
		m.StoreID = in.StoreID
	}
	if err := inventory.ValidateStores(m); err != nil {
		return nil, err
	}
	if err := inventory.ValidateDraft(m.TotalAmount, m.Lines); err != nil {
		return nil, err
	}
	if err := uc.checkStores(ctx, m); err != nil {
		return nil, err
	}
	err := uc.coord.Execute(ctx, "create_draft", func(ctx context.Context, repos TxRepos) error {
		return repos.Movements.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateDraft reemplaza el contenido editable de un borrador.
func (uc *MovementUseCase) UpdateDraft(ctx context.Context, in UpdateDraftInput) (*entity.Movement, error) {
	if err := inventory.ValidateDraft(in.TotalAmount, in.Lines); err != nil {
		return nil, err
	}
	var updated *entity.Movement
	err := uc.coord.Execute(ctx, "update_draft", func(ctx context.Context, repos TxRepos) error {
		cur, err := loadOwned(ctx, repos.Movements, in.CompanyID, in.MovementID)
		if err != nil {
			return err
		}
		if !inventory.CanEditLines(cur.State) {
			return fmt.Errorf("%w: edición en estado %s", domain.ErrInvalidStateTransition, cur.State)
		}
		next := cur.Clone()
		next.Lines = append([]entity.MovementLine(nil), in.Lines...)
		next.TotalAmount = in.TotalAmount
		next.Annotations = in.Annotations
		next.UpdatedAt = uc.now()
		next.Version = cur.Version + 1
		if err := repos.Movements.Update(ctx, next, cur.Version); err != nil {
			return err
		}
		updated = next
		return nil
	})
	return updated, err
}

// Commit confirma un ingreso o salida: DRAFT -> POSTED.
func (uc *MovementUseCase) Commit(ctx context.Context, companyID, userID, id string) (*entity.Movement, error) {
	return uc.advance(ctx, "commit", companyID, userID, id, inventory.ActionCommit)
}

// Send despacha un traslado: DRAFT -> SENT. Descuenta en origen y reserva en tránsito.
func (uc *MovementUseCase) Send(ctx context.Context, companyID, userID, id string) (*entity.Movement, error) {
	return uc.advance(ctx, "send", companyID, userID, id, inventory.ActionSend)
}

// Receive recibe un traslado: SENT -> RECEIVED. Ingresa en destino y libera el tránsito.
func (uc *MovementUseCase) Receive(ctx context.Context, companyID, userID, id string) (*entity.Movement, error) {
	return uc.advance(ctx, "receive", companyID, userID, id, inventory.ActionReceive)
}

// Cancel anula el documento. Un borrador se anula sin efecto en stock; uno POSTED o SENT
// escribe asientos de reversa con signo invertido.
func (uc *MovementUseCase) Cancel(ctx context.Context, companyID, userID, id string) (*entity.Movement, error) {
	return uc.advance(ctx, "cancel", companyID, userID, id, inventory.ActionCancel)
}

// Get devuelve un documento de la empresa.
func (uc *MovementUseCase) Get(ctx context.Context, companyID, id string) (*entity.Movement, error) {
	return loadOwned(ctx, uc.movements, companyID, id)
}

// List lista documentos de la empresa con filtros y paginación.
func (uc *MovementUseCase) List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if filter.CompanyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, filter.Type)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.movements.List(ctx, filter)
}

// advance valida fuera de la unidad (para no gastar códigos en entradas inválidas), reserva
// el código si la acción lo requiere y ejecuta la transición dentro del coordinador. Cada
// intento vuelve a leer el documento y las posiciones.
func (uc *MovementUseCase) advance(ctx context.Context, operation, companyID, userID, id string, action inventory.Action) (*entity.Movement, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	pre, err := loadOwned(ctx, uc.movements, companyID, id)
	if err != nil {
		return nil, err
	}
	if _, err := inventory.Transition(pre.Type, pre.State, action); err != nil {
		return nil, err
	}

	issuesCode := action == inventory.ActionCommit || action == inventory.ActionSend
	var code string
	if issuesCode {
		if err := inventory.ValidateMovement(pre); err != nil {
			return nil, err
		}
		if err := uc.checkReferences(ctx, pre); err != nil {
			return nil, err
		}
		code, err = uc.sequencer.Next(ctx, pre.Type, inventory.PeriodKey(uc.now()))
		if err != nil {
			return nil, err
		}
	}

	var (
		result *entity.Movement
		rng    entity.SequenceRange
	)
	err = uc.coord.Execute(ctx, operation, func(ctx context.Context, repos TxRepos) error {
		cur, err := loadOwned(ctx, repos.Movements, companyID, id)
		if err != nil {
			return err
		}
		to, err := inventory.Transition(cur.Type, cur.State, action)
		if err != nil {
			return err
		}
		now := uc.now()
		next := cur.Clone()
		if issuesCode {
			if err := inventory.ValidateMovement(cur); err != nil {
				return err
			}
			next.Code = code
		}

		entries, err := uc.entriesFor(ctx, repos, next, action, userID, now)
		if err != nil {
			return err
		}
		rng = entity.SequenceRange{}
		if len(entries) > 0 {
			rng, err = appendAndProject(ctx, repos, entries)
			if err != nil {
				return err
			}
		}

		next.State = to
		next.UpdatedAt = now
		next.Version = cur.Version + 1
		stamp(next, to, userID, now)
		if err := repos.Movements.Update(ctx, next, cur.Version); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.log != nil {
		uc.log.Info().Str("movement_id", result.ID).Str("code", result.Code).
			Str("type", string(result.Type)).Str("state", string(result.State)).
			Int64("seq_from", rng.From).Int64("seq_to", rng.To).Msg("movimiento de inventario aplicado")
	}
	return result, nil
}

// entriesFor construye los asientos del libro para la acción. Ningún asiento se escribe
// para la anulación de un borrador.
func (uc *MovementUseCase) entriesFor(ctx context.Context, repos TxRepos, m *entity.Movement, action inventory.Action, userID string, now time.Time) ([]*entity.StockLedgerEntry, error) {
	switch action {
	case inventory.ActionCommit:
		kind, sign := entity.KindReceipt, decimal.NewFromInt(1)
		if m.Type == entity.MovementTypeIssue {
			kind, sign = entity.KindIssue, decimal.NewFromInt(-1)
		}
		out := make([]*entity.StockLedgerEntry, 0, len(m.Lines))
		for _, l := range m.Lines {
			e := newEntry(m, l, m.StoreID, kind, userID, now)
			e.QuantityDelta = l.Quantity.Mul(sign)
			out = append(out, e)
		}
		return out, nil

	case inventory.ActionSend:
		out := make([]*entity.StockLedgerEntry, 0, len(m.Lines))
		for _, l := range m.Lines {
			e := newEntry(m, l, m.OriginStoreID, entity.KindTransferOut, userID, now)
			e.QuantityDelta = l.Quantity.Neg()
			e.InTransitDelta = l.Quantity
			out = append(out, e)
		}
		return out, nil

	case inventory.ActionReceive:
		// El destino recibe al costo con que salió del origen.
		sent, err := repos.Ledger.ListByDocument(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		sentCost := make(map[int]decimal.Decimal, len(sent))
		for _, e := range sent {
			if e.Kind == entity.KindTransferOut {
				sentCost[e.LineNo] = e.UnitValue
			}
		}
		out := make([]*entity.StockLedgerEntry, 0, 2*len(m.Lines))
		for _, l := range m.Lines {
			in := newEntry(m, l, m.DestinationStoreID, entity.KindTransferIn, userID, now)
			in.QuantityDelta = l.Quantity
			if c, ok := sentCost[l.LineNo]; ok {
				in.UnitValue = c
			}
			settle := newEntry(m, l, m.OriginStoreID, entity.KindTransferIn, userID, now)
			settle.InTransitDelta = l.Quantity.Neg()
			settle.UnitValue = in.UnitValue
			out = append(out, in, settle)
		}
		return out, nil

	case inventory.ActionCancel:
		if m.State == entity.StateDraft {
			return nil, nil
		}
		original, err := repos.Ledger.ListByDocument(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		return reversalEntries(original, userID, now), nil
	}
	return nil, fmt.Errorf("%w: acción %q", domain.ErrInvalidInput, action)
}

// reversalEntries compensa cada asiento del documento con signo invertido.
func reversalEntries(original []*entity.StockLedgerEntry, userID string, now time.Time) []*entity.StockLedgerEntry {
	out := make([]*entity.StockLedgerEntry, 0, len(original))
	for _, e := range original {
		if e.Kind == entity.KindReversal {
			continue
		}
		out = append(out, &entity.StockLedgerEntry{
			StoreID:        e.StoreID,
			ProductID:      e.ProductID,
			Kind:           entity.KindReversal,
			QuantityDelta:  e.QuantityDelta.Neg(),
			InTransitDelta: e.InTransitDelta.Neg(),
			UnitValue:      e.UnitValue,
			DocumentID:     e.DocumentID,
			DocumentCode:   e.DocumentCode,
			LineNo:         e.LineNo,
			CreatedBy:      userID,
			Timestamp:      now,
		})
	}
	return out
}

func newEntry(m *entity.Movement, l entity.MovementLine, storeID string, kind entity.MovementKind, userID string, now time.Time) *entity.StockLedgerEntry {
	return &entity.StockLedgerEntry{
		StoreID:        storeID,
		ProductID:      l.ProductID,
		Kind:           kind,
		QuantityDelta:  decimal.Zero,
		InTransitDelta: decimal.Zero,
		UnitValue:      l.UnitValue,
		DocumentID:     m.ID,
		DocumentCode:   m.Code,
		LineNo:         l.LineNo,
		CreatedBy:      userID,
		Timestamp:      now,
	}
}

func stamp(m *entity.Movement, to entity.MovementState, userID string, now time.Time) {
	t := now
	switch to {
	case entity.StatePosted:
		m.PostedAt = &t
	case entity.StateSent:
		m.SentAt = &t
	case entity.StateReceived:
		m.ReceivedAt = &t
	case entity.StateCancelled:
		m.CancelledAt = &t
		m.CancelledBy = userID
	}
}

// loadOwned lee el documento y verifica que pertenezca a la empresa. Un documento de otra
// empresa se reporta como inexistente.
func loadOwned(ctx context.Context, repo repository.MovementRepository, companyID, id string) (*entity.Movement, error) {
	if companyID == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (uc *MovementUseCase) checkStores(ctx context.Context, m *entity.Movement) error {
	for _, s := range m.Stores() {
		ok, err := uc.stores.Exists(ctx, m.CompanyID, s)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: tienda %s", domain.ErrUnknownReference, s)
		}
	}
	return nil
}

// checkReferences consulta los datos maestros antes de confirmar.
func (uc *MovementUseCase) checkReferences(ctx context.Context, m *entity.Movement) error {
	if err := uc.checkStores(ctx, m); err != nil {
		return err
	}
	seen := make(map[string]bool, len(m.Lines))
	for _, l := range m.Lines {
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ok, err := uc.products.Exists(ctx, m.CompanyID, l.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrUnknownReference, l.ProductID)
		}
	}
	return nil
}
