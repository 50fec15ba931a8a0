package dashboard

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bolsawatch/internal/market"
)

var (
	sparkGreen = drawing.Color{R: 46, G: 160, B: 67, A: 255}
	sparkRed   = drawing.Color{R: 218, G: 54, B: 51, A: 255}
)

func (s *Server) getSparkline(c *gin.Context) {
	nemo := strings.TrimSuffix(c.Param("nemo"), ".png")

	snapshot, ready := s.snapshot()
	if !ready {
		c.Status(http.StatusNotFound)
		return
	}

	var card *market.Card
	for i := range snapshot.Cards {
		if snapshot.Cards[i].NEMO == nemo {
			card = &snapshot.Cards[i]
			break
		}
	}
	if card == nil || len(card.History) < 2 {
		c.Status(http.StatusNotFound)
		return
	}

	buf, err := renderSparkline(*card)
	if err != nil {
		s.logger.Error().Err(err).Str("nemo", nemo).Msg("sparkline render failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func renderSparkline(card market.Card) (*bytes.Buffer, error) {
	x := make([]time.Time, len(card.History))
	y := make([]float64, len(card.History))
	for i, point := range card.History {
		x[i] = point.Fecha
		y[i] = point.Precio.InexactFloat64()
	}

	stroke := sparkGreen
	if card.Delta.Trend == market.TrendDown {
		stroke = sparkRed
	}

	graph := chart.Chart{
		Width:  420,
		Height: 120,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    card.NEMO,
				XValues: x,
				YValues: y,
				Style: chart.Style{
					StrokeColor: stroke,
					StrokeWidth: 2,
					FillColor:   stroke.WithAlpha(26),
				},
			},
		},
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
