package seating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
)

type fakeRepository struct {
	tables map[uint]*Table
	pax    map[uint]int // guestID -> pax_count
	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		tables: make(map[uint]*Table),
		pax:    make(map[uint]int),
		nextID: 1,
	}
}

func (f *fakeRepository) Create(ctx context.Context, t *Table) error {
	t.ID = f.nextID
	f.nextID++
	f.tables[t.ID] = t
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uint) (*Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) ListByEvent(ctx context.Context, eventID uint) ([]Table, error) {
	var out []Table
	for _, t := range f.tables {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepository) Update(ctx context.Context, t *Table) error {
	if _, ok := f.tables[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *t
	f.tables[t.ID] = &cp
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uint) error {
	delete(f.tables, id)
	return nil
}

func (f *fakeRepository) ReplaceAssignment(ctx context.Context, eventID, guestID, targetTableID uint) ([]Table, error) {
	var out []Table
	for _, t := range f.tables {
		if t.EventID != eventID {
			continue
		}
		kept := t.AssignedGuestIDs[:0]
		for _, id := range t.AssignedGuestIDs {
			if id != guestID {
				kept = append(kept, id)
			}
		}
		t.AssignedGuestIDs = kept
		if t.ID == targetTableID {
			t.AssignedGuestIDs = append(t.AssignedGuestIDs, guestID)
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeRepository) PaxByGuestIDs(ctx context.Context, eventID uint) (map[uint]int, error) {
	return f.pax, nil
}

func (f *fakeRepository) GuestExistsInEvent(ctx context.Context, eventID, guestID uint) (bool, error) {
	_, ok := f.pax[guestID]
	return ok, nil
}

type allowAllRBAC struct {
	rbac.Service
}

func (allowAllRBAC) Can(ctx context.Context, userID, eventID uint, resource, action string) (bool, error) {
	return true, nil
}

type nopAudit struct{}

func (nopAudit) LogAction(ctx context.Context, userID *uint, eventID *uint, action string, details map[string]interface{}, ip string, status string) error {
	return nil
}
func (nopAudit) GetAuditLogs(ctx context.Context, filter auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return nil, nil
}
func (nopAudit) GetAuditLogByID(ctx context.Context, id uint) (*auditlog.AuditLog, error) {
	return nil, nil
}

const (
	testEventID = uint(5)
	testActorID = uint(1)
)

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	return NewService(repo, allowAllRBAC{}, nopAudit{}, notification.NopPublisher{}), repo
}

func createTable(t *testing.T, svc Service, name string, capacity int) *Table {
	t.Helper()
	tbl, err := svc.CreateTable(context.Background(), testEventID, CreateTableRequest{
		Name:     name,
		Capacity: capacity,
	}, testActorID, "127.0.0.1")
	require.NoError(t, err)
	return tbl
}

func assignedTo(tables []TableSummary, guestID uint) []uint {
	var ids []uint
	for _, t := range tables {
		for _, id := range t.AssignedGuestIDs {
			if id == guestID {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids
}

func TestAssignKeepsTablesDisjoint(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	t1 := createTable(t, svc, "Table 1", 8)
	t2 := createTable(t, svc, "Table 2", 8)
	repo.pax[100] = 2

	tables, err := svc.Assign(ctx, testEventID, 100, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []uint{t1.ID}, assignedTo(tables, 100))

	// Moving to another table removes the old membership.
	tables, err = svc.Assign(ctx, testEventID, 100, t2.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []uint{t2.ID}, assignedTo(tables, 100))

	// Repeating the same assignment is a no-op, not a duplicate.
	tables, err = svc.Assign(ctx, testEventID, 100, t2.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []uint{t2.ID}, assignedTo(tables, 100))
}

func TestAssignZeroUnassigns(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	t1 := createTable(t, svc, "Table 1", 8)
	repo.pax[100] = 2

	_, err := svc.Assign(ctx, testEventID, 100, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)

	tables, err := svc.Assign(ctx, testEventID, 100, 0, testActorID, "127.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, assignedTo(tables, 100))
}

func TestAssignUnknownGuest(t *testing.T) {
	svc, _ := newTestService(t)
	t1 := createTable(t, svc, "Table 1", 8)

	_, err := svc.Assign(context.Background(), testEventID, 999, t1.ID, testActorID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrGuestNotFound)
}

func TestOverCapacityIsWarningNotError(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	t1 := createTable(t, svc, "Table 1", 4)
	repo.pax[100] = 5

	tables, err := svc.Assign(ctx, testEventID, 100, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err, "capacity is informational; the assignment must land")

	require.Len(t, tables, 1)
	assert.Equal(t, 5, tables[0].CurrentPax)
	assert.True(t, tables[0].OverCapacity)
	assert.Equal(t, 1, tables[0].OverBy)
}

func TestCapacitySumsPaxNotParties(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	t1 := createTable(t, svc, "Table 1", 6)
	repo.pax[100] = 3
	repo.pax[101] = 4

	_, err := svc.Assign(ctx, testEventID, 100, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)
	tables, err := svc.Assign(ctx, testEventID, 101, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)

	require.Len(t, tables, 1)
	assert.Equal(t, 7, tables[0].CurrentPax)
	assert.True(t, tables[0].OverCapacity)
}

func TestDeleteTableWithGuestsFails(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	t1 := createTable(t, svc, "Table 1", 8)
	repo.pax[100] = 2

	_, err := svc.Assign(ctx, testEventID, 100, t1.ID, testActorID, "127.0.0.1")
	require.NoError(t, err)

	err = svc.DeleteTable(ctx, testEventID, t1.ID, testActorID, "127.0.0.1")
	var neErr *TableNotEmptyError
	require.ErrorAs(t, err, &neErr)
	assert.Equal(t, 1, neErr.Guests)

	// Unassign, then deletion goes through.
	_, err = svc.Assign(ctx, testEventID, 100, 0, testActorID, "127.0.0.1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTable(ctx, testEventID, t1.ID, testActorID, "127.0.0.1"))
}
