package scene

import (
	"time"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/grid"
	"github.com/matzehuels/sectionflow/pkg/layout/mosaic"
	"github.com/matzehuels/sectionflow/pkg/layout/rows"
)

// Strategy builds a fresh strategy for the section. Scale is the device
// pixel scale; zero means the strategy default.
func (sec *Section) Strategy(scale float64) (layout.Strategy, error) {
	base := layout.Base{
		Insets:     sec.Insets.Geom(),
		Header:     supplementary(sec.Header),
		Footer:     supplementary(sec.Footer),
		Decoration: sec.decoration(),
		Identifier: sec.Type + "/" + sec.ID,
	}

	switch sec.Type {
	case TypeRows:
		r := &rows.Rows{
			Base:               base,
			RowHeight:          sec.RowHeight,
			EstimatedRowHeight: sec.EstimatedHeight,
			SelfSizing:         sec.SelfSizing,
			Spacing:            sec.Spacing,
		}
		return r, nil

	case TypeGrid:
		align := grid.AlignNone
		if sec.Alignment != "" {
			a, ok := grid.ParseAlignment(sec.Alignment)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidScene, "unknown grid alignment %q", sec.Alignment)
			}
			align = a
		}
		g := &grid.Grid{
			Base:                    base,
			ItemSize:                geom.Size{Width: sec.ItemWidth, Height: sec.ItemHeight},
			Columns:                 sec.Columns,
			MinimumInteritemSpacing: sec.MinSpacing,
			LineSpacing:             sec.LineSpacing,
			SelfSizing:              sec.SelfSizing,
			EstimatedItemHeight:     sec.EstimatedHeight,
			Alignment:               align,
			Scale:                   scale,
		}
		return g, nil

	case TypeMosaic:
		arr, err := mosaic.ParseArrangement(sec.Arrangement)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "mosaic")
		}
		m := mosaic.New(sec.Spacing, time.Duration(sec.Interval))
		m.Base = base
		m.Arrangement = arr
		m.Scale = scale
		return m, nil
	}
	return nil, errors.New(errors.ErrCodeUnknownStrategy, "unknown section type %q", sec.Type)
}

func supplementary(s *Supplementary) layout.Supplementary {
	switch {
	case s == nil:
		return layout.Supplementary{}
	case s.Estimated:
		return layout.EstimatedSupplementary(s.Height)
	default:
		return layout.FixedSupplementary(s.Height)
	}
}

func (sec *Section) decoration() layout.SectionOptions {
	opts := layout.SectionOptions{
		PinHeader:        sec.Header != nil && sec.Header.Pinned,
		PinFooter:        sec.Footer != nil && sec.Footer.Pinned,
		SeparatorColor:   sec.SeparatorColor,
		ShowTopGutter:    sec.TopGutter,
		ShowBottomGutter: sec.BottomGutter,
		GutterColor:      sec.GutterColor,
	}
	switch sec.Separator {
	case SeparatorAll:
		opts.Separator = layout.SeparatorAll
	case SeparatorAllButLast:
		opts.Separator = layout.SeparatorAllButLast
	}
	return opts
}
