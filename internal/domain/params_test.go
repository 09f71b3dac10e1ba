package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityVisualization(t *testing.T) {
	vis := SeverityVisualization()
	assert.Equal(t, 1, vis.Min)
	assert.Equal(t, 5, vis.Max)
	assert.Equal(t, []string{"yellow", "orange", "red", "darkred", "purple"}, vis.Palette)
}

func TestSeverityBreaks(t *testing.T) {
	assert.Equal(t, []float64{-0.2, -0.3, -0.4, -0.5}, SeverityBreaks())
}

func TestSeverityClasses_LegendMatchesPalette(t *testing.T) {
	classes := SeverityClasses()
	palette := SeverityVisualization().Palette
	if assert.Len(t, classes, len(palette)) {
		for i, c := range classes {
			assert.Equal(t, i+1, c.Value)
			assert.Equal(t, palette[i], c.Color)
		}
	}
	assert.Equal(t, "Very Low", classes[0].Label)
	assert.Equal(t, ">0.5", classes[4].Range)
}

func TestSeverityClasses_ReturnsCopy(t *testing.T) {
	classes := SeverityClasses()
	classes[0].Color = "black"
	assert.Equal(t, "yellow", SeverityClasses()[0].Color)
}

func TestBandsAndMask(t *testing.T) {
	assert.Equal(t, []string{"B2", "B3", "B4", "B8", "B12", "QA60"}, Bands())
	assert.Equal(t, []int{10, 11}, CloudMaskBits())
}
