package engine

import (
	"github.com/google/btree"
	"github.com/piwi3910/SteelSys/internal/model"
)

// lengthEpsilon absorbs floating point noise when comparing lengths in mm.
const lengthEpsilon = 1e-6

const btreeDegree = 16

// source is a stock bar or remnant while it is being cut.
type source struct {
	id        string
	kind      model.SourceKind
	label     string
	heat      string
	length    float64 // Original length
	remaining float64 // Usable length left after cuts and kerf
	cursor    float64 // Offset of the next cut
	cuts      int
	used      float64
	kerfLoss  float64
}

// openLess orders the open pool by remaining length, then original length,
// then ID. The first entry that fits a piece is therefore the best fit.
func openLess(a, b *source) bool {
	if a.remaining != b.remaining {
		return a.remaining < b.remaining
	}
	if a.length != b.length {
		return a.length < b.length
	}
	return a.id < b.id
}

// freshLess orders untouched stock bars shortest first.
func freshLess(a, b *source) bool {
	if a.length != b.length {
		return a.length < b.length
	}
	return a.id < b.id
}

// sourcePool holds the candidates for one profile group. Remnants and opened
// stock bars live in the open pool; untouched stock bars live in the fresh
// pool and only move over once they receive their first cut.
type sourcePool struct {
	open  *btree.BTreeG[*source]
	fresh *btree.BTreeG[*source]
}

func newSourcePool(stock []model.StockItem, remnants []model.RemnantItem) *sourcePool {
	p := &sourcePool{
		open:  btree.NewG(btreeDegree, openLess),
		fresh: btree.NewG(btreeDegree, freshLess),
	}
	for _, r := range remnants {
		p.open.ReplaceOrInsert(&source{
			id:        r.ID,
			kind:      model.SourceRemnant,
			label:     r.Label,
			heat:      r.HeatNumber,
			length:    r.Length,
			remaining: r.Length,
		})
	}
	for _, s := range stock {
		p.fresh.ReplaceOrInsert(&source{
			id:        s.ID,
			kind:      model.SourceStock,
			label:     s.Label,
			heat:      s.HeatNumber,
			length:    s.Length,
			remaining: s.Length,
		})
	}
	return p
}

// take removes and returns the source that should receive a cut of need mm:
// the open source with the least remaining length that still fits, else the
// shortest fresh bar that fits. It returns nil when nothing fits.
// The caller must hand the source back with put once it has been cut.
func (p *sourcePool) take(need float64) *source {
	if s := firstAtLeast(p.open, &source{remaining: need - lengthEpsilon}); s != nil {
		p.open.Delete(s)
		return s
	}
	if s := firstAtLeast(p.fresh, &source{length: need - lengthEpsilon}); s != nil {
		p.fresh.Delete(s)
		return s
	}
	return nil
}

// put re-inserts a source into the open pool under its current remaining length.
func (p *sourcePool) put(s *source) {
	p.open.ReplaceOrInsert(s)
}

func firstAtLeast(t *btree.BTreeG[*source], pivot *source) *source {
	var found *source
	t.AscendGreaterOrEqual(pivot, func(s *source) bool {
		found = s
		return false
	})
	return found
}

// cut places one piece unit at the source's cursor and charges kerf for it.
func (s *source) cut(u model.PieceUnit, kerf float64) model.CutAssignment {
	s.cuts++
	a := model.CutAssignment{
		ID:         assignmentID(s.id, s.cuts),
		PieceID:    u.PieceID,
		PieceIndex: u.Index,
		Label:      u.Label,
		PartRef:    u.PartRef,
		SourceID:   s.id,
		SourceKind: s.kind,
		Offset:     s.cursor,
		Length:     u.Length,
		Kerf:       kerf,
	}
	s.cursor += u.Length + kerf
	s.remaining -= u.Length + kerf
	s.used += u.Length
	s.kerfLoss += kerf
	return a
}

// leftover is the usable tail of the source, never negative.
func (s *source) leftover() float64 {
	if s.remaining < lengthEpsilon {
		return 0
	}
	return s.remaining
}
