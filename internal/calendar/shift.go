package calendar

import (
	"context"
	"errors"
	"fmt"

	"sharecal/internal/model"
	"sharecal/internal/store"
)

// Failure codes for rejected mutations.
const (
	FailValidation = "validation"
	FailPermission = "permission"
	FailNotFound   = "not_found"
)

// Failure is the structured rejection shape for mutations and precondition
// violations. It is an error so callers can propagate it, but it never
// signals anything fatal to the process.
type Failure struct {
	Code    string
	Message string
}

func (f *Failure) Error() string {
	return f.Code + ": " + f.Message
}

// AsFailure unwraps a Failure from err, if one is there.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ShiftItem moves one item by deltaDays, holding its elapsed duration
// constant: when both timestamps are present both move, when the end is
// absent only the start moves. The write is dispatched to the item kind's
// own persistence path, and the caller must rebuild the month view
// afterwards; no local patching of derived layout happens here.
func (e *Engine) ShiftItem(ctx context.Context, item *model.CalendarItem, deltaDays int) (*model.CalendarItem, error) {
	if item.StartAt.IsZero() {
		return nil, &Failure{Code: FailValidation, Message: "item has no start time and cannot be shifted"}
	}
	if !item.CanEdit {
		return nil, &Failure{Code: FailPermission, Message: "viewer cannot edit this item"}
	}

	newStart := item.StartAt.AddDate(0, 0, deltaDays)
	patch := store.SpanPatch{StartAt: &newStart}
	if item.HasEnd() {
		newEnd := item.EndAt.AddDate(0, 0, deltaDays)
		patch.EndAt = &newEnd
	}

	return e.writeItem(ctx, item, patch)
}

// UpdateItem applies a direct field edit through the same kind-dispatched
// write path as ShiftItem.
func (e *Engine) UpdateItem(ctx context.Context, item *model.CalendarItem, patch store.SpanPatch) (*model.CalendarItem, error) {
	if !item.CanEdit {
		return nil, &Failure{Code: FailPermission, Message: "viewer cannot edit this item"}
	}
	return e.writeItem(ctx, item, patch)
}

// writeItem dispatches the update on the item's kind. ENTRY and CONTAINER
// items present identically to the callers but persist through different
// collaborators.
func (e *Engine) writeItem(ctx context.Context, item *model.CalendarItem, patch store.SpanPatch) (*model.CalendarItem, error) {
	// CanEdit implies the viewer owns the item, so conversion runs with the
	// owner as viewer and no label prefix applies.
	labels := map[string]string{}

	switch item.Kind {
	case model.KindEntry:
		row, err := e.writer.UpdateEntrySpan(ctx, item.ID, patch)
		if err != nil {
			return nil, mapWriteErr(err, item)
		}
		updated := entryItem(row, item.OwnerID, labels)
		if updated == nil {
			return nil, fmt.Errorf("calendar: updated entry %s lost its start time", item.ID)
		}
		updated.CanEdit = item.CanEdit
		return updated, nil

	case model.KindContainer:
		row, err := e.writer.UpdateGroupSpan(ctx, item.ID, patch)
		if err != nil {
			return nil, mapWriteErr(err, item)
		}
		updated := groupItem(row, item.OwnerID, labels)
		if updated == nil {
			return nil, fmt.Errorf("calendar: updated group %s lost its start time", item.ID)
		}
		updated.CanEdit = item.CanEdit
		return updated, nil

	default:
		return nil, &Failure{Code: FailValidation, Message: "unknown item kind " + string(item.Kind)}
	}
}

func mapWriteErr(err error, item *model.CalendarItem) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Failure{
			Code:    FailNotFound,
			Message: string(item.Kind) + " " + item.ID + " no longer exists",
		}
	}
	return fmt.Errorf("calendar: writing %s %s: %w", item.Kind, item.ID, err)
}
