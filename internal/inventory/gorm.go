package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/piwi3910/SteelSys/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormRepository stores inventory in PostgreSQL or SQLite.
type GormRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ Repository = (*GormRepository)(nil)

// OpenPostgres connects to PostgreSQL and migrates the schema.
func OpenPostgres(dsn string, log *zap.Logger) (*GormRepository, error) {
	return open(postgres.Open(dsn), log)
}

// OpenSQLite opens (or creates) a SQLite database file and migrates the schema.
func OpenSQLite(path string, log *zap.Logger) (*GormRepository, error) {
	return open(sqlite.Open(path), log)
}

// Open picks the driver by name: "postgres" or "sqlite".
func Open(driver, dsn string, log *zap.Logger) (*GormRepository, error) {
	switch driver {
	case "postgres", "postgresql":
		return OpenPostgres(dsn, log)
	case "sqlite", "":
		return OpenSQLite(dsn, log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func open(dialector gorm.Dialector, log *zap.Logger) (*GormRepository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo := &GormRepository{db: db, log: log}
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewGormRepository wraps an existing connection. The schema must already exist.
func NewGormRepository(db *gorm.DB, log *zap.Logger) *GormRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormRepository{db: db, log: log}
}

// Migrate creates or updates the inventory tables.
func (r *GormRepository) Migrate() error {
	if err := r.db.AutoMigrate(&stockRecord{}, &remnantRecord{}, &cutRecord{}); err != nil {
		return fmt.Errorf("failed to migrate inventory schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) Snapshot(ctx context.Context, profile string) (Snapshot, error) {
	snap := Snapshot{Profile: profile}
	db := r.db.WithContext(ctx)

	var stock []stockRecord
	if err := db.Where("profile = ? AND status = ?", profile, model.StatusAvailable).
		Order("stock_id").Find(&stock).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to load stock for %s: %w", profile, err)
	}
	var remnants []remnantRecord
	if err := db.Where("profile = ? AND status = ?", profile, model.StatusAvailable).
		Order("remnant_id").Find(&remnants).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to load remnants for %s: %w", profile, err)
	}

	for _, s := range stock {
		snap.Stock = append(snap.Stock, s.toModel())
	}
	for _, rm := range remnants {
		snap.Remnants = append(snap.Remnants, rm.toModel())
	}
	return snap, nil
}

func (r *GormRepository) Profiles(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)

	var stockProfiles, remnantProfiles []string
	if err := db.Model(&stockRecord{}).Where("status = ?", model.StatusAvailable).
		Distinct().Pluck("profile", &stockProfiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock profiles: %w", err)
	}
	if err := db.Model(&remnantRecord{}).Where("status = ?", model.StatusAvailable).
		Distinct().Pluck("profile", &remnantProfiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list remnant profiles: %w", err)
	}

	set := make(map[string]bool)
	for _, p := range append(stockProfiles, remnantProfiles...) {
		set[p] = true
	}
	profiles := make([]string, 0, len(set))
	for p := range set {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles, nil
}

func (r *GormRepository) Contents(ctx context.Context) (Contents, error) {
	db := r.db.WithContext(ctx)

	var stock []stockRecord
	if err := db.Order("stock_id").Find(&stock).Error; err != nil {
		return Contents{}, fmt.Errorf("failed to load stock: %w", err)
	}
	var remnants []remnantRecord
	if err := db.Order("remnant_id").Find(&remnants).Error; err != nil {
		return Contents{}, fmt.Errorf("failed to load remnants: %w", err)
	}

	var c Contents
	for _, s := range stock {
		c.Stock = append(c.Stock, s.toModel())
	}
	for _, rm := range remnants {
		c.Remnants = append(c.Remnants, rm.toModel())
	}
	return c, nil
}

func (r *GormRepository) AddStock(ctx context.Context, items ...model.StockItem) error {
	if len(items) == 0 {
		return nil
	}
	records := make([]stockRecord, len(items))
	ids := make([]string, len(items))
	for i, s := range items {
		records[i] = stockToRecord(s)
		ids[i] = s.ID
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkFree(tx, ids); err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add stock: %w", err)
	}
	r.log.Debug("stock added", zap.Int("count", len(records)))
	return nil
}

func (r *GormRepository) AddRemnants(ctx context.Context, items ...model.RemnantItem) error {
	if len(items) == 0 {
		return nil
	}
	records := make([]remnantRecord, len(items))
	ids := make([]string, len(items))
	for i, rm := range items {
		records[i] = remnantToRecord(rm)
		ids[i] = rm.ID
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkFree(tx, ids); err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to add remnants: %w", err)
	}
	r.log.Debug("remnants added", zap.Int("count", len(records)))
	return nil
}

// ApplyPlan consumes the sources of all plans, inserts their remnants and
// records their cuts in one transaction. A source is only consumed while it
// is still available; otherwise the transaction rolls back with ErrConflict.
func (r *GormRepository) ApplyPlan(ctx context.Context, workOrderID string, plans ...model.CuttingPlan) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var base int64
		if err := tx.Model(&cutRecord{}).Where("work_order_id = ?", workOrderID).Count(&base).Error; err != nil {
			return fmt.Errorf("failed to count cuts: %w", err)
		}
		seq := int(base)

		for _, plan := range plans {
			for _, src := range plan.Sources {
				if err := consume(tx, src); err != nil {
					return err
				}
			}

			if produced := producedFor(workOrderID, plan); len(produced) > 0 {
				records := make([]remnantRecord, len(produced))
				ids := make([]string, len(produced))
				for i, rm := range produced {
					records[i] = remnantToRecord(rm)
					ids[i] = rm.ID
				}
				if err := checkFree(tx, ids); err != nil {
					return fmt.Errorf("produced remnant: %w", err)
				}
				if err := tx.Create(&records).Error; err != nil {
					return fmt.Errorf("failed to insert remnants: %w", err)
				}
			}

			if len(plan.Assignments) > 0 {
				cuts := make([]cutRecord, len(plan.Assignments))
				for i, a := range plan.Assignments {
					cuts[i] = cutToRecord(workOrderID, seq, a)
					seq++
				}
				if err := tx.Create(&cuts).Error; err != nil {
					return fmt.Errorf("failed to record cuts: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		r.log.Warn("plan not applied",
			zap.String("work_order", workOrderID),
			zap.Int("plans", len(plans)),
			zap.Error(err))
		return err
	}

	sources, remnants := 0, 0
	for _, p := range plans {
		sources += len(p.Sources)
		remnants += len(p.ProducedRemnants)
	}
	r.log.Info("plan applied",
		zap.String("work_order", workOrderID),
		zap.Int("plans", len(plans)),
		zap.Int("sources", sources),
		zap.Int("remnants", remnants))
	return nil
}

func consume(tx *gorm.DB, src model.SourceUsage) error {
	var (
		table  any = &stockRecord{}
		column     = "stock_id"
	)
	if src.SourceKind == model.SourceRemnant {
		table, column = &remnantRecord{}, "remnant_id"
	}

	res := tx.Model(table).
		Where(column+" = ? AND status = ?", src.SourceID, model.StatusAvailable).
		Updates(map[string]any{
			"status":  string(model.StatusConsumed),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to consume %s: %w", src.SourceID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(table).Where(column+" = ?", src.SourceID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", src.SourceID, err)
	}
	if count == 0 {
		return fmt.Errorf("source %s: %w", src.SourceID, ErrNotFound)
	}
	return fmt.Errorf("source %s: %w", src.SourceID, ErrConflict)
}

// checkFree fails with ErrDuplicateID when an ID repeats within ids or is
// already stored in either the stock or the remnant table.
func checkFree(tx *gorm.DB, ids []string) error {
	if id, dup := duplicateIn(ids); dup {
		return fmt.Errorf("%s given twice: %w", id, ErrDuplicateID)
	}

	var taken []string
	if err := tx.Model(&stockRecord{}).Where("stock_id IN ?", ids).
		Pluck("stock_id", &taken).Error; err != nil {
		return fmt.Errorf("failed to check stock ids: %w", err)
	}
	if len(taken) > 0 {
		return fmt.Errorf("%s is a stock bar: %w", taken[0], ErrDuplicateID)
	}
	if err := tx.Model(&remnantRecord{}).Where("remnant_id IN ?", ids).
		Pluck("remnant_id", &taken).Error; err != nil {
		return fmt.Errorf("failed to check remnant ids: %w", err)
	}
	if len(taken) > 0 {
		return fmt.Errorf("%s is a remnant: %w", taken[0], ErrDuplicateID)
	}
	return nil
}

func (r *GormRepository) Cuts(ctx context.Context, workOrderID string) ([]model.CutAssignment, error) {
	var records []cutRecord
	if err := r.db.WithContext(ctx).Where("work_order_id = ?", workOrderID).
		Order("seq").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load cuts for %s: %w", workOrderID, err)
	}
	cuts := make([]model.CutAssignment, len(records))
	for i, rec := range records {
		cuts[i] = rec.toModel()
	}
	return cuts, nil
}

// IsConflict reports whether err is an optimistic concurrency failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
