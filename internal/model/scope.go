package model

import "gorm.io/gorm"

// Subqueries for entities whose tenant is resolved through a relation
// chain rather than a direct organization_id column. Used as
// `Where("owner_id IN (?)", model.OrgUserIDs(db, orgID))` so the scope
// predicate and the primary-key match land in a single query; a miss is
// indistinguishable from a row that does not exist.

// OrgUserIDs selects the ids of all users in an organization
func OrgUserIDs(db *gorm.DB, organizationID string) *gorm.DB {
	return db.Model(&User{}).Select("id").Where("organization_id = ?", organizationID)
}

// OrgIntegrationIDs selects the ids of all integrations in an organization
func OrgIntegrationIDs(db *gorm.DB, organizationID string) *gorm.DB {
	return db.Model(&Integration{}).Select("id").Where("organization_id = ?", organizationID)
}

// All returns every model for migration at startup
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&Company{},
		&Integration{},
		&ChecklistItem{},
		&ArtifactLink{},
		&IntegrationTemplate{},
		&Task{},
		&Note{},
		&EvalRun{},
	}
}
