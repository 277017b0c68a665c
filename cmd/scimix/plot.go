package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	gmm "github.com/YuminosukeSato/scimix/sklearn/mixture"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// writeCriterionPlot draws the selection score against k and saves it to
// path. The image format follows the file extension.
func writeCriterionPlot(sel *gmm.Selection, path string) error {
	pts := make(plotter.XYs, len(sel.Candidates))
	var best plotter.XYs
	for i, c := range sel.Candidates {
		pts[i].X = float64(c.K)
		pts[i].Y = c.Score(sel.Criterion)
		if c.K == sel.BestK {
			best = append(best, pts[i])
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by number of components", strings.ToUpper(sel.Criterion))
	p.X.Label.Text = "k"
	p.Y.Label.Text = strings.ToUpper(sel.Criterion)
	p.X.Tick.Marker = integerTicks{}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "criterion curve")
	}
	p.Add(line, points)
	p.Legend.Add(p.Y.Label.Text, line, points)

	if len(best) > 0 {
		marker, err := plotter.NewScatter(best)
		if err != nil {
			return errors.Wrap(err, "best k marker")
		}
		marker.GlyphStyle.Radius = vg.Points(5)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("best k = %d", sel.BestK), marker)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

// integerTicks places one labelled tick at every integer k.
type integerTicks struct{}

func (integerTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for k := int(math.Ceil(lo)); float64(k) <= hi; k++ {
		ticks = append(ticks, plot.Tick{Value: float64(k), Label: fmt.Sprint(k)})
	}
	return ticks
}
