package importer

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"
)

// DXFOptions controls how drawing entities become pieces.
type DXFOptions struct {
	// DefaultProfile is used for entities on layer "0" or without a layer.
	DefaultProfile string
	// RoundTo is the length resolution in mm. Zero means 0.1.
	RoundTo float64
	// MinLength drops entities shorter than this many mm. Zero means 1.
	MinLength float64
}

func (o DXFOptions) withDefaults() DXFOptions {
	if o.RoundTo <= 0 {
		o.RoundTo = 0.1
	}
	if o.MinLength <= 0 {
		o.MinLength = 1
	}
	return o
}

// pieceKey groups equal pieces drawn more than once.
type pieceKey struct {
	profile string
	length  float64
}

// ImportDXF imports linear pieces from a DXF cut drawing. Every LINE, ARC
// and open LWPOLYLINE is one piece whose length is measured along the
// entity. The layer name is the profile. Equal pieces on the same layer are
// merged into one RequiredPiece with a quantity.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}
	opts = opts.withDefaults()

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	counts := make(map[pieceKey]int)
	skippedNoProfile := 0

	for _, ent := range entities {
		var length float64
		switch e := ent.(type) {
		case *entity.Line:
			length = distance(e.Start[0], e.Start[1], e.End[0], e.End[1])

		case *entity.Arc:
			length = arcLength(e)

		case *entity.LwPolyline:
			if e.Closed {
				result.Warnings = append(result.Warnings,
					"Skipped closed LWPOLYLINE, closed outlines are not linear pieces")
				continue
			}
			length = polylineLength(e)

		default:
			// Unsupported entity types are silently skipped
			continue
		}

		if length < opts.MinLength {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped entity shorter than %.1f mm (%.2f mm)", opts.MinLength, length))
			continue
		}

		profile := layerProfile(ent, opts.DefaultProfile)
		if profile == "" {
			skippedNoProfile++
			continue
		}
		counts[pieceKey{profile: profile, length: roundTo(length, opts.RoundTo)}]++
	}

	if skippedNoProfile > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d entities on layer 0 skipped, no default profile given", skippedNoProfile))
	}

	if len(counts) == 0 {
		result.Errors = append(result.Errors, "No linear pieces found in DXF file")
		return result
	}

	keys := make([]pieceKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].profile != keys[j].profile {
			return keys[i].profile < keys[j].profile
		}
		return keys[i].length > keys[j].length
	})

	partRef := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, k := range keys {
		label := fmt.Sprintf("%s %s %g", partRef, k.profile, k.length)
		piece := model.NewRequiredPiece(k.profile, label, k.length, counts[k])
		piece.PartRef = partRef
		result.Pieces = append(result.Pieces, piece)
	}

	return result
}

// layerProfile maps the entity layer to a profile name.
func layerProfile(ent entity.Entity, fallback string) string {
	layered, ok := ent.(interface{ Layer() *table.Layer })
	if !ok || layered.Layer() == nil {
		return fallback
	}
	name := strings.TrimSpace(layered.Layer().Name())
	if name == "" || name == "0" {
		return fallback
	}
	return name
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// arcLength returns the length of a DXF ARC entity along its curve.
func arcLength(a *entity.Arc) float64 {
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}
	return a.Circle.Radius * (endRad - startRad)
}

// polylineLength sums the segments of an open LWPOLYLINE. Bulged segments
// count with their arc length.
func polylineLength(lw *entity.LwPolyline) float64 {
	var total float64
	for i := 0; i+1 < len(lw.Vertices); i++ {
		p1, p2 := lw.Vertices[i], lw.Vertices[i+1]
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		total += bulgeSegmentLength(p1[0], p1[1], p2[0], p2[1], bulge)
	}
	return total
}

// bulgeSegmentLength returns the length between two vertices joined by a
// DXF bulge. The bulge is the tangent of 1/4 the included angle.
func bulgeSegmentLength(x1, y1, x2, y2, bulge float64) float64 {
	chord := distance(x1, y1, x2, y2)
	if math.Abs(bulge) < 1e-9 || chord < 1e-9 {
		return chord
	}
	included := 4 * math.Atan(math.Abs(bulge))
	radius := chord / (2 * math.Sin(included/2))
	return radius * included
}

func roundTo(v, step float64) float64 {
	if step < 1 {
		inv := math.Round(1 / step)
		return math.Round(v*inv) / inv
	}
	return math.Round(v/step) * step
}
