package seating

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, t *Table) error
	GetByID(ctx context.Context, id uint) (*Table, error)
	ListByEvent(ctx context.Context, eventID uint) ([]Table, error)
	Update(ctx context.Context, t *Table) error
	Delete(ctx context.Context, id uint) error

	// ReplaceAssignment atomically moves a guest to targetTableID
	// (0 = unassigned), serialized per event.
	ReplaceAssignment(ctx context.Context, eventID, guestID, targetTableID uint) ([]Table, error)

	// PaxByGuestIDs maps guest id -> pax_count for occupancy sums.
	PaxByGuestIDs(ctx context.Context, eventID uint) (map[uint]int, error)

	GuestExistsInEvent(ctx context.Context, eventID, guestID uint) (bool, error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, t *Table) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Table, error) {
	var t Table
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uint) ([]Table, error) {
	var tables []Table
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Find(&tables).Error
	return tables, err
}

func (r *repository) Update(ctx context.Context, t *Table) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Table{}, id).Error
}

// ReplaceAssignment locks the event row so only one assignment mutates the
// event's tables at a time, then rewrites every set that mentions the guest.
// The removal step makes the operation a replace: calling it twice with the
// same arguments yields the same single assignment.
func (r *repository) ReplaceAssignment(ctx context.Context, eventID, guestID, targetTableID uint) ([]Table, error) {
	var tables []Table

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lockedEventID uint
		err := tx.Table("events").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", eventID).
			Scan(&lockedEventID).Error
		if err != nil {
			return err
		}
		if lockedEventID == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("event_id = ?", eventID).Order("name ASC").Find(&tables).Error; err != nil {
			return err
		}

		for i := range tables {
			t := &tables[i]

			changed := false
			kept := t.AssignedGuestIDs[:0]
			for _, id := range t.AssignedGuestIDs {
				if id == guestID {
					changed = true
					continue
				}
				kept = append(kept, id)
			}
			t.AssignedGuestIDs = kept

			if t.ID == targetTableID {
				t.AssignedGuestIDs = append(t.AssignedGuestIDs, guestID)
				changed = true
			}

			if changed {
				if err := tx.Model(&Table{}).
					Where("id = ?", t.ID).
					Update("assigned_guest_ids", t.AssignedGuestIDs).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func (r *repository) PaxByGuestIDs(ctx context.Context, eventID uint) (map[uint]int, error) {
	type row struct {
		ID       uint
		PaxCount int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("guests").
		Select("id, pax_count").
		Where("event_id = ?", eventID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	pax := make(map[uint]int, len(rows))
	for _, r := range rows {
		pax[r.ID] = r.PaxCount
	}
	return pax, nil
}

func (r *repository) GuestExistsInEvent(ctx context.Context, eventID, guestID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("guests").
		Where("id = ? AND event_id = ?", guestID, eventID).
		Count(&count).Error
	return count > 0, err
}
