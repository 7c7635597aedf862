package inventory

import (
	"time"

	"github.com/piwi3910/SteelSys/internal/model"
)

// stockRecord is the persisted form of a stock bar.
type stockRecord struct {
	ID         string  `gorm:"column:stock_id;primaryKey;type:varchar(50)"`
	Profile    string  `gorm:"column:profile;type:varchar(50);index;not null"`
	Label      string  `gorm:"column:label;type:varchar(100)"`
	Length     float64 `gorm:"column:length;not null"`
	Status     string  `gorm:"column:status;type:varchar(20);index;not null"`
	Location   string  `gorm:"column:location;type:varchar(50)"`
	HeatNumber string  `gorm:"column:heat_number;type:varchar(50)"`
	Version    int     `gorm:"column:version;not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (stockRecord) TableName() string { return "stock_items" }

// remnantRecord is the persisted form of a remnant.
type remnantRecord struct {
	ID             string  `gorm:"column:remnant_id;primaryKey;type:varchar(50)"`
	Profile        string  `gorm:"column:profile;type:varchar(50);index;not null"`
	Label          string  `gorm:"column:label;type:varchar(100)"`
	Length         float64 `gorm:"column:length;not null"`
	Status         string  `gorm:"column:status;type:varchar(20);index;not null"`
	Location       string  `gorm:"column:location;type:varchar(50)"`
	HeatNumber     string  `gorm:"column:heat_number;type:varchar(50)"`
	OriginSourceID string  `gorm:"column:origin_source_id;type:varchar(50);index"`
	OriginKind     int     `gorm:"column:origin_kind"`
	OriginOffset   float64 `gorm:"column:origin_offset"`
	WorkOrderID    string  `gorm:"column:work_order_id;type:varchar(50);index"`
	Version        int     `gorm:"column:version;not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (remnantRecord) TableName() string { return "remnant_items" }

// cutRecord is one applied cut assignment.
type cutRecord struct {
	ID          string  `gorm:"column:cut_id;primaryKey;type:varchar(100)"`
	WorkOrderID string  `gorm:"column:work_order_id;type:varchar(50);index;not null"`
	Seq         int     `gorm:"column:seq;not null"`
	PieceID     string  `gorm:"column:piece_id;type:varchar(50);not null"`
	PieceIndex  int     `gorm:"column:piece_index"`
	Label       string  `gorm:"column:label;type:varchar(100)"`
	PartRef     string  `gorm:"column:part_ref;type:varchar(100)"`
	SourceID    string  `gorm:"column:source_id;type:varchar(50);index;not null"`
	SourceKind  int     `gorm:"column:source_kind"`
	Offset      float64 `gorm:"column:offset_mm"`
	Length      float64 `gorm:"column:length;not null"`
	Kerf        float64 `gorm:"column:kerf"`
	CreatedAt   time.Time
}

func (cutRecord) TableName() string { return "cut_assignments" }

func stockToRecord(s model.StockItem) stockRecord {
	status := s.Status
	if status == "" {
		status = model.StatusAvailable
	}
	return stockRecord{
		ID:         s.ID,
		Profile:    s.Profile,
		Label:      s.Label,
		Length:     s.Length,
		Status:     string(status),
		Location:   s.Location,
		HeatNumber: s.HeatNumber,
		Version:    1,
	}
}

func (r stockRecord) toModel() model.StockItem {
	return model.StockItem{
		ID:         r.ID,
		Profile:    r.Profile,
		Label:      r.Label,
		Length:     r.Length,
		Status:     model.Status(r.Status),
		Location:   r.Location,
		HeatNumber: r.HeatNumber,
	}
}

func remnantToRecord(rm model.RemnantItem) remnantRecord {
	status := rm.Status
	if status == "" {
		status = model.StatusAvailable
	}
	return remnantRecord{
		ID:             rm.ID,
		Profile:        rm.Profile,
		Label:          rm.Label,
		Length:         rm.Length,
		Status:         string(status),
		Location:       rm.Location,
		HeatNumber:     rm.HeatNumber,
		OriginSourceID: rm.Origin.SourceID,
		OriginKind:     int(rm.Origin.SourceKind),
		OriginOffset:   rm.Origin.Offset,
		WorkOrderID:    rm.Origin.WorkOrderID,
		Version:        1,
	}
}

func (r remnantRecord) toModel() model.RemnantItem {
	return model.RemnantItem{
		ID:      r.ID,
		Profile: r.Profile,
		Label:   r.Label,
		Length:  r.Length,
		Origin: model.RemnantOrigin{
			SourceID:    r.OriginSourceID,
			SourceKind:  model.SourceKind(r.OriginKind),
			WorkOrderID: r.WorkOrderID,
			Offset:      r.OriginOffset,
		},
		Status:     model.Status(r.Status),
		Location:   r.Location,
		HeatNumber: r.HeatNumber,
	}
}

func cutToRecord(workOrderID string, seq int, a model.CutAssignment) cutRecord {
	return cutRecord{
		ID:          a.ID,
		WorkOrderID: workOrderID,
		Seq:         seq,
		PieceID:     a.PieceID,
		PieceIndex:  a.PieceIndex,
		Label:       a.Label,
		PartRef:     a.PartRef,
		SourceID:    a.SourceID,
		SourceKind:  int(a.SourceKind),
		Offset:      a.Offset,
		Length:      a.Length,
		Kerf:        a.Kerf,
	}
}

func (r cutRecord) toModel() model.CutAssignment {
	return model.CutAssignment{
		ID:         r.ID,
		PieceID:    r.PieceID,
		PieceIndex: r.PieceIndex,
		Label:      r.Label,
		PartRef:    r.PartRef,
		SourceID:   r.SourceID,
		SourceKind: model.SourceKind(r.SourceKind),
		Offset:     r.Offset,
		Length:     r.Length,
		Kerf:       r.Kerf,
	}
}
