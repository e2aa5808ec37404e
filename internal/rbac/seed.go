package rbac

import (
	"gorm.io/gorm"
)

// catalog is the full static permission catalog. Seeded once at startup;
// entries are never edited or removed at runtime.
var catalog = []Permission{
	{Resource: ResourceGuestList, Action: ActionView},
	{Resource: ResourceGuestList, Action: ActionAdd},
	{Resource: ResourceGuestList, Action: ActionEdit},
	{Resource: ResourceGuestList, Action: ActionDelete},

	{Resource: ResourceSeating, Action: ActionView},
	{Resource: ResourceSeating, Action: ActionAdd},
	{Resource: ResourceSeating, Action: ActionEdit},
	{Resource: ResourceSeating, Action: ActionDelete},

	{Resource: ResourceSouvenir, Action: ActionView},
	{Resource: ResourceSouvenir, Action: ActionAdd},
	{Resource: ResourceSouvenir, Action: ActionEdit},
	{Resource: ResourceSouvenir, Action: ActionDelete},
	{Resource: ResourceSouvenir, Action: ActionScan},

	{Resource: ResourceRoles, Action: ActionView},
	{Resource: ResourceRoles, Action: ActionAdd},
	{Resource: ResourceRoles, Action: ActionEdit},
	{Resource: ResourceRoles, Action: ActionDelete},

	{Resource: ResourceStaff, Action: ActionView},
	{Resource: ResourceStaff, Action: ActionAdd},
	{Resource: ResourceStaff, Action: ActionDelete},

	{Resource: ResourceEventSettings, Action: ActionView},
	{Resource: ResourceEventSettings, Action: ActionEdit},

	{Resource: ResourceCheckIn, Action: ActionScan},
	{Resource: ResourceCheckIn, Action: ActionManual},
}

// SeedPermissions installs the permission catalog, skipping entries that
// already exist.
func SeedPermissions(db *gorm.DB) error {
	for _, p := range catalog {
		perm := p
		err := db.Where("resource = ? AND action = ?", perm.Resource, perm.Action).
			FirstOrCreate(&perm).Error
		if err != nil {
			return err
		}
	}
	return nil
}
