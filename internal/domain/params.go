package domain

// Imagery selection and change-detection parameters sent with every query.
const (
	Collection          = "COPERNICUS/S2_SR_HARMONIZED"
	CloudPercentProp    = "CLOUDY_PIXEL_PERCENTAGE"
	MaxCloudPercent     = 60
	CloudMaskBand       = "QA60"
	NIRBand             = "B8"
	RedBand             = "B4"
	CompositeReducer    = "median"
	VegetationThreshold = 0.2 // base-year NDVI above which a pixel counts as vegetation
	LossThreshold       = 0.1 // minimum NDVI decrease reported as loss
)

// cloudMaskBits are the QA60 bits that must be clear (opaque clouds, cirrus).
var cloudMaskBits = []int{10, 11}

// Bands returns the Sentinel-2 bands selected before compositing.
func Bands() []string {
	return []string{"B2", "B3", "B4", "B8", "B12", CloudMaskBand}
}

// CloudMaskBits returns the QA60 bit positions that must be zero.
func CloudMaskBits() []int {
	return append([]int(nil), cloudMaskBits...)
}

// SeverityClass describes one step of the loss severity scale.
type SeverityClass struct {
	Value int     // class value in the severity image (1-5)
	Label string  // legend label
	Range string  // NDVI decrease range shown in the legend
	Color string  // CSS color, also used as the upstream palette entry
	Break float64 // NDVI_diff strictly below this value reaches the class; 0 for class 1
}

var severityClasses = []SeverityClass{
	{Value: 1, Label: "Very Low", Range: "0.1-0.2", Color: "yellow"},
	{Value: 2, Label: "Low", Range: "0.2-0.3", Color: "orange", Break: -0.2},
	{Value: 3, Label: "Moderate", Range: "0.3-0.4", Color: "red", Break: -0.3},
	{Value: 4, Label: "High", Range: "0.4-0.5", Color: "darkred", Break: -0.4},
	{Value: 5, Label: "Severe", Range: ">0.5", Color: "purple", Break: -0.5},
}

// SeverityClasses returns the severity scale ordered from least to most severe.
func SeverityClasses() []SeverityClass {
	return append([]SeverityClass(nil), severityClasses...)
}

// SeverityBreaks returns the NDVI_diff thresholds for classes 2 through 5.
func SeverityBreaks() []float64 {
	breaks := make([]float64, 0, len(severityClasses)-1)
	for _, c := range severityClasses[1:] {
		breaks = append(breaks, c.Break)
	}
	return breaks
}

// Visualization holds the display range and palette for the severity image.
type Visualization struct {
	Min     int      `json:"min"`
	Max     int      `json:"max"`
	Palette []string `json:"palette"`
}

// SeverityVisualization returns the visualization parameters for tile rendering.
func SeverityVisualization() Visualization {
	palette := make([]string, len(severityClasses))
	for i, c := range severityClasses {
		palette[i] = c.Color
	}
	return Visualization{
		Min:     severityClasses[0].Value,
		Max:     severityClasses[len(severityClasses)-1].Value,
		Palette: palette,
	}
}
