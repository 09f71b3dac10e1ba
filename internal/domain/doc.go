// Package domain models vegetation-loss analysis requests and the query sent
// to the external geospatial analytics service.
//
// # Imagery
//
// Analyses run against the Sentinel-2 surface reflectance collection
// (COPERNICUS/S2_SR_HARMONIZED). Only scenes with a CLOUDY_PIXEL_PERCENTAGE
// below [MaxCloudPercent] are considered. Per-pixel cloud masking uses the
// QA60 band:
//
//	bit 10  opaque clouds
//	bit 11  cirrus
//
// A pixel is kept only when both bits are zero.
//
// # Vegetation index
//
// NDVI is the normalized difference of the near-infrared and red bands:
//
//	NDVI = (B8 - B4) / (B8 + B4)
//
// Values range from -1 to 1; dense healthy vegetation sits well above 0.5,
// bare soil and built surfaces near 0, water below 0.
//
// # Compositing and change
//
// Each year is reduced to a single median composite (1 January to 31 December)
// clipped to the study area. The change image is
//
//	NDVI_diff = NDVI(compare year) - NDVI(base year)
//
// where the compare year is the current calendar year. Loss is reported only
// for pixels that were vegetated in the base year (NDVI > [VegetationThreshold])
// and whose NDVI dropped by more than [LossThreshold].
//
// # Severity
//
// Loss pixels are classified from the NDVI decrease:
//
//	class 1  Very Low  0.1-0.2   yellow
//	class 2  Low       0.2-0.3   orange
//	class 3  Moderate  0.3-0.4   red
//	class 4  High      0.4-0.5   darkred
//	class 5  Severe    >0.5      purple
//
// The palette sent upstream and the legend drawn on the map both come from
// [SeverityClasses].
//
// # Study area
//
// The request radius is given in kilometers. The region sent upstream is a
// 64-vertex polygon approximating the circle on a spherical Earth, along with
// its bounding rectangle. See [StudyArea].
package domain
