package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/you/safetyauth/domain"
)

// OwnershipRepositoryImpl implements domain.OwnershipResolver by walking
// foreign keys up to the owning factory and company.
type OwnershipRepositoryImpl struct {
	db *gorm.DB
}

// NewOwnershipRepository creates a new ownership resolver
func NewOwnershipRepository(db *gorm.DB) domain.OwnershipResolver {
	return &OwnershipRepositoryImpl{db: db}
}

// anchor is a row owned through an employee or an area
type anchor struct {
	ID         uint
	AreaID     *uint
	EmployeeID *uint
}

// Resolve implements domain.OwnershipResolver
func (r *OwnershipRepositoryImpl) Resolve(ctx context.Context, kind domain.EntityKind, ids []uint) (map[uint]domain.Ownership, error) {
	if len(ids) == 0 {
		return map[uint]domain.Ownership{}, nil
	}
	db := r.db.WithContext(ctx)

	var (
		out map[uint]domain.Ownership
		err error
	)
	switch kind {
	case domain.EntityCompany:
		out, err = r.companies(db, ids)
	case domain.EntityFactory:
		out, err = r.factories(db, ids)
	case domain.EntityArea:
		out, err = r.byFactory(db, &DBArea{}, ids)
	case domain.EntityEmployee:
		out, err = r.byFactory(db, &DBPrincipal{}, ids)
	case domain.EntityWork:
		out, err = r.anchored(db, &DBWork{}, ids)
	case domain.EntityEvent:
		out, err = r.anchored(db, &DBEvent{}, ids)
	case domain.EntityAlarm:
		out, err = r.alarms(db, ids)
	case domain.EntitySetting:
		out, err = r.settings(db, ids)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s ownership: %w", kind, err)
	}
	return out, nil
}

func (r *OwnershipRepositoryImpl) companies(db *gorm.DB, ids []uint) (map[uint]domain.Ownership, error) {
	var found []uint
	if err := db.Model(&DBCompany{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]domain.Ownership, len(found))
	for _, id := range found {
		out[id] = domain.Ownership{CompanyID: id, Resolved: true}
	}
	return out, nil
}

func (r *OwnershipRepositoryImpl) settings(db *gorm.DB, ids []uint) (map[uint]domain.Ownership, error) {
	var rows []DBTenantSetting
	if err := db.Select("id", "company_id").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]domain.Ownership, len(rows))
	for _, s := range rows {
		out[s.ID] = domain.Ownership{CompanyID: s.CompanyID, Resolved: true}
	}
	return out, nil
}

func (r *OwnershipRepositoryImpl) factories(db *gorm.DB, ids []uint) (map[uint]domain.Ownership, error) {
	out := make(map[uint]domain.Ownership, len(ids))
	for _, id := range ids {
		out[id] = domain.Ownership{FactoryID: id, Resolved: true}
	}
	return r.withCompanies(db, out, true)
}

// byFactory resolves rows that carry a factory_id column directly
func (r *OwnershipRepositoryImpl) byFactory(db *gorm.DB, model interface{}, ids []uint) (map[uint]domain.Ownership, error) {
	factoryOf, err := r.factoryIDs(db, model, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]domain.Ownership, len(factoryOf))
	for id, fid := range factoryOf {
		out[id] = domain.Ownership{FactoryID: fid, Resolved: true}
	}
	return r.withCompanies(db, out, false)
}

// anchored resolves rows owned through an employee, falling back to the area
func (r *OwnershipRepositoryImpl) anchored(db *gorm.DB, model interface{}, ids []uint) (map[uint]domain.Ownership, error) {
	var rows []anchor
	if err := db.Model(model).Select("id", "area_id", "employee_id").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return r.resolveAnchors(db, rows)
}

func (r *OwnershipRepositoryImpl) alarms(db *gorm.DB, ids []uint) (map[uint]domain.Ownership, error) {
	var alarms []DBAlarm
	if err := db.Select("id", "event_id").Where("id IN ?", ids).Find(&alarms).Error; err != nil {
		return nil, err
	}
	if len(alarms) == 0 {
		return map[uint]domain.Ownership{}, nil
	}

	eventIDs := make([]uint, 0, len(alarms))
	for _, a := range alarms {
		eventIDs = append(eventIDs, a.EventID)
	}
	events, err := r.anchored(db, &DBEvent{}, eventIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint]domain.Ownership, len(alarms))
	for _, a := range alarms {
		// an alarm whose event is gone still exists, it just has no owner
		out[a.ID] = events[a.EventID]
	}
	return out, nil
}

func (r *OwnershipRepositoryImpl) resolveAnchors(db *gorm.DB, rows []anchor) (map[uint]domain.Ownership, error) {
	var employeeIDs, areaIDs []uint
	for _, a := range rows {
		if a.EmployeeID != nil {
			employeeIDs = append(employeeIDs, *a.EmployeeID)
		}
		if a.AreaID != nil {
			areaIDs = append(areaIDs, *a.AreaID)
		}
	}
	employeeFactory, err := r.factoryIDs(db, &DBPrincipal{}, employeeIDs)
	if err != nil {
		return nil, err
	}
	areaFactory, err := r.factoryIDs(db, &DBArea{}, areaIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uint]domain.Ownership, len(rows))
	for _, a := range rows {
		var (
			fid uint
			ok  bool
		)
		if a.EmployeeID != nil {
			fid, ok = employeeFactory[*a.EmployeeID]
		}
		if !ok && a.AreaID != nil {
			fid, ok = areaFactory[*a.AreaID]
		}
		out[a.ID] = domain.Ownership{FactoryID: fid, Resolved: ok}
	}
	return r.withCompanies(db, out, false)
}

// factoryIDs maps each id of model to its factory_id
func (r *OwnershipRepositoryImpl) factoryIDs(db *gorm.DB, model interface{}, ids []uint) (map[uint]uint, error) {
	out := make(map[uint]uint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID        uint
		FactoryID uint
	}
	if err := db.Model(model).Select("id", "factory_id").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.FactoryID
	}
	return out, nil
}

// withCompanies fills in the company of every resolved factory. When the
// factory itself is missing the entry is dropped if dropMissing is set, and
// marked unresolved otherwise.
func (r *OwnershipRepositoryImpl) withCompanies(db *gorm.DB, owned map[uint]domain.Ownership, dropMissing bool) (map[uint]domain.Ownership, error) {
	seen := make(map[uint]struct{})
	var factoryIDs []uint
	for _, o := range owned {
		if !o.Resolved {
			continue
		}
		if _, ok := seen[o.FactoryID]; !ok {
			seen[o.FactoryID] = struct{}{}
			factoryIDs = append(factoryIDs, o.FactoryID)
		}
	}

	companyOf := make(map[uint]uint, len(factoryIDs))
	if len(factoryIDs) > 0 {
		var rows []DBFactory
		if err := db.Select("id", "company_id").Where("id IN ?", factoryIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, f := range rows {
			companyOf[f.ID] = f.CompanyID
		}
	}

	for id, o := range owned {
		if !o.Resolved {
			continue
		}
		cid, ok := companyOf[o.FactoryID]
		switch {
		case ok:
			o.CompanyID = cid
			owned[id] = o
		case dropMissing:
			delete(owned, id)
		default:
			owned[id] = domain.Ownership{FactoryID: o.FactoryID}
		}
	}
	return owned, nil
}
