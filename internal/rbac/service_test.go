package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
)

// fakeRepository keeps the whole RBAC state in maps so service behavior can
// be exercised without a database.
type fakeRepository struct {
	permissions map[uint]Permission
	roles       map[uint]*Role
	rolePerms   map[uint]map[uint]bool             // roleID -> set of permission IDs
	assignments map[uint]map[uint]*StaffAssignment // eventID -> userID
	owners      map[uint]uint                      // eventID -> ownerID
	nextRoleID  uint
}

func newFakeRepository() *fakeRepository {
	f := &fakeRepository{
		permissions: make(map[uint]Permission),
		roles:       make(map[uint]*Role),
		rolePerms:   make(map[uint]map[uint]bool),
		assignments: make(map[uint]map[uint]*StaffAssignment),
		owners:      make(map[uint]uint),
		nextRoleID:  1,
	}
	var id uint = 1
	for _, p := range catalog {
		f.permissions[id] = Permission{ID: id, Resource: p.Resource, Action: p.Action}
		id++
	}
	return f
}

func (f *fakeRepository) permissionID(resource, action string) uint {
	for id, p := range f.permissions {
		if p.Resource == resource && p.Action == action {
			return id
		}
	}
	return 0
}

func (f *fakeRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	var out []Permission
	for _, p := range f.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepository) CountPermissionsByIDs(ctx context.Context, ids []uint) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.permissions[id]; ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) CreateRole(ctx context.Context, role *Role) error {
	role.ID = f.nextRoleID
	f.nextRoleID++
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRepository) GetRoleByID(ctx context.Context, roleID uint) (*Role, error) {
	role, ok := f.roles[roleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *role
	return &cp, nil
}

func (f *fakeRepository) GetRoleWithPermissions(ctx context.Context, roleID uint) (*Role, error) {
	role, err := f.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	role.Permissions = nil
	for pid := range f.rolePerms[roleID] {
		role.Permissions = append(role.Permissions, f.permissions[pid])
	}
	return role, nil
}

func (f *fakeRepository) ListRolesByEvent(ctx context.Context, eventID uint) ([]Role, error) {
	var out []Role
	for _, r := range f.roles {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepository) CountRolesByName(ctx context.Context, eventID uint, name string) (int64, error) {
	var n int64
	for _, r := range f.roles {
		if r.EventID == eventID && r.Name == name {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) UpdateRole(ctx context.Context, role *Role) error {
	stored, ok := f.roles[role.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = role.Name
	stored.Description = role.Description
	return nil
}

func (f *fakeRepository) DeleteRoleCascade(ctx context.Context, roleID uint) error {
	delete(f.roles, roleID)
	delete(f.rolePerms, roleID)
	return nil
}

func (f *fakeRepository) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	set := make(map[uint]bool, len(permissionIDs))
	for _, pid := range permissionIDs {
		set[pid] = true
	}
	f.rolePerms[roleID] = set
	return nil
}

func (f *fakeRepository) CreateAssignment(ctx context.Context, a *StaffAssignment) error {
	if f.assignments[a.EventID] == nil {
		f.assignments[a.EventID] = make(map[uint]*StaffAssignment)
	}
	f.assignments[a.EventID][a.UserID] = a
	return nil
}

func (f *fakeRepository) GetAssignment(ctx context.Context, eventID, userID uint) (*StaffAssignment, error) {
	a, ok := f.assignments[eventID][userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (f *fakeRepository) ListAssignmentsByEvent(ctx context.Context, eventID uint) ([]StaffAssignment, error) {
	var out []StaffAssignment
	for _, a := range f.assignments[eventID] {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepository) CountAssignmentsByRole(ctx context.Context, roleID uint) (int64, error) {
	var n int64
	for _, byUser := range f.assignments {
		for _, a := range byUser {
			if a.RoleID == roleID {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeRepository) DeleteAssignment(ctx context.Context, eventID, userID uint) error {
	delete(f.assignments[eventID], userID)
	return nil
}

func (f *fakeRepository) GetEventOwnerID(ctx context.Context, eventID uint) (uint, error) {
	owner, ok := f.owners[eventID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return owner, nil
}

func (f *fakeRepository) HasPermission(ctx context.Context, roleID uint, resource, action string) (bool, error) {
	pid := f.permissionID(resource, action)
	return f.rolePerms[roleID][pid], nil
}

type fakeUserLookup struct {
	byEmail map[string]uint
}

func (f *fakeUserLookup) FindUserIDByEmail(ctx context.Context, email string) (uint, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
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
	ownerID    = uint(1)
	staffID    = uint(2)
	outsiderID = uint(3)
	eventID    = uint(10)
)

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	repo.owners[eventID] = ownerID
	users := &fakeUserLookup{byEmail: map[string]uint{
		"staff@example.com": staffID,
	}}
	svc := NewService(repo, users, nopAudit{})
	require.NoError(t, svc.CreateOwnerRole(context.Background(), eventID))
	return svc, repo
}

// addStaffRole creates a role with the given permissions and assigns it to
// staffID.
func addStaffRole(t *testing.T, svc Service, repo *fakeRepository, perms ...[2]string) *Role {
	t.Helper()
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, eventID, CreateRoleRequest{Name: "Usher"}, ownerID, "127.0.0.1")
	require.NoError(t, err)

	var ids []uint
	for _, p := range perms {
		id := repo.permissionID(p[0], p[1])
		require.NotZero(t, id, "unknown permission %v", p)
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		_, err = svc.SetPermissions(ctx, eventID, role.ID, ids, ownerID, "127.0.0.1")
		require.NoError(t, err)
	}

	_, err = svc.InviteStaff(ctx, eventID, "staff@example.com", role.ID, ownerID, "127.0.0.1")
	require.NoError(t, err)
	return role
}

func TestCanOwnerBypass(t *testing.T) {
	svc, _ := newTestService(t)

	allowed, err := svc.Can(context.Background(), ownerID, eventID, ResourceGuestList, ActionDelete)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanUnknownEventDenies(t *testing.T) {
	svc, _ := newTestService(t)

	allowed, err := svc.Can(context.Background(), ownerID, 999, ResourceGuestList, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed, "unknown event must deny, not error")
}

func TestCanNoAssignmentDenies(t *testing.T) {
	svc, _ := newTestService(t)

	allowed, err := svc.Can(context.Background(), outsiderID, eventID, ResourceGuestList, ActionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanStaffPermission(t *testing.T) {
	svc, repo := newTestService(t)
	addStaffRole(t, svc, repo, [2]string{ResourceGuestList, ActionView})

	ctx := context.Background()

	allowed, err := svc.Can(ctx, staffID, eventID, ResourceGuestList, ActionView)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Not in the role's set.
	allowed, err = svc.Can(ctx, staffID, eventID, ResourceGuestList, ActionDelete)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRoleEditVisibleToNextDecision(t *testing.T) {
	svc, repo := newTestService(t)
	role := addStaffRole(t, svc, repo, [2]string{ResourceSeating, ActionEdit})

	ctx := context.Background()

	allowed, err := svc.Can(ctx, staffID, eventID, ResourceSeating, ActionEdit)
	require.NoError(t, err)
	require.True(t, allowed)

	// Replace the set with something else entirely.
	_, err = svc.SetPermissions(ctx, eventID, role.ID,
		[]uint{repo.permissionID(ResourceSouvenir, ActionView)}, ownerID, "127.0.0.1")
	require.NoError(t, err)

	allowed, err = svc.Can(ctx, staffID, eventID, ResourceSeating, ActionEdit)
	require.NoError(t, err)
	assert.False(t, allowed, "revocation must apply to the very next decision")

	allowed, err = svc.Can(ctx, staffID, eventID, ResourceSouvenir, ActionView)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSetPermissionsUnknownID(t *testing.T) {
	svc, repo := newTestService(t)
	role := addStaffRole(t, svc, repo)

	_, err := svc.SetPermissions(context.Background(), eventID, role.ID, []uint{9999}, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnknownPermission)
}

func TestSystemRoleImmutable(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	var owner *Role
	for _, r := range repo.roles {
		if r.IsSystem {
			owner = r
		}
	}
	require.NotNil(t, owner)

	_, err := svc.UpdateRole(ctx, eventID, owner.ID, UpdateRoleRequest{Name: "Renamed"}, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	err = svc.DeleteRole(ctx, eventID, owner.ID, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	_, err = svc.SetPermissions(ctx, eventID, owner.ID, nil, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	_, err = svc.InviteStaff(ctx, eventID, "staff@example.com", owner.ID, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)
}

func TestDeleteRoleInUse(t *testing.T) {
	svc, repo := newTestService(t)
	role := addStaffRole(t, svc, repo, [2]string{ResourceGuestList, ActionView})

	ctx := context.Background()

	err := svc.DeleteRole(ctx, eventID, role.ID, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrRoleInUse)

	require.NoError(t, svc.RemoveStaff(ctx, eventID, staffID, ownerID, "127.0.0.1"))

	require.NoError(t, svc.DeleteRole(ctx, eventID, role.ID, ownerID, "127.0.0.1"))
	_, err = repo.GetRoleByID(ctx, role.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInviteStaffTwice(t *testing.T) {
	svc, repo := newTestService(t)
	role := addStaffRole(t, svc, repo)

	_, err := svc.InviteStaff(context.Background(), eventID, "staff@example.com", role.ID, ownerID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrAlreadyStaff)
}

func TestStaffWithoutRolesPermissionCannotManageRoles(t *testing.T) {
	svc, repo := newTestService(t)
	addStaffRole(t, svc, repo, [2]string{ResourceGuestList, ActionView})

	ctx := context.Background()

	_, err := svc.ListRoles(ctx, eventID, staffID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateRole(ctx, eventID, CreateRoleRequest{Name: "Sneaky"}, staffID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
