package normalize

import (
	"strconv"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Geo parses and bounds-checks a coordinate pair. Out-of-range or
// unparseable values are rejected, and (0,0) is treated as "provider sent
// nothing" rather than a real location.
func Geo(latRaw, lonRaw string) (domain.Geo, bool) {
	lat, err := strconv.ParseFloat(CleanText(latRaw), 64)
	if err != nil {
		return domain.Geo{}, false
	}
	lon, err := strconv.ParseFloat(CleanText(lonRaw), 64)
	if err != nil {
		return domain.Geo{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Geo{}, false
	}
	if lat == 0 && lon == 0 {
		return domain.Geo{}, false
	}
	return domain.Geo{Lat: lat, Lon: lon}, true
}
