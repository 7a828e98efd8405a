// Package sky tiles a survey footprint into declination-band regions and
// renders the ADQL for each region.
package sky

import (
	"fmt"
	"math"
	"strings"
)

// J2000 galactic frame constants: ICRS coordinates of the north galactic
// pole and the galactic longitude of the north celestial pole.
const (
	ngpRA  = 192.85948
	ngpDec = 27.12825
	lNCP   = 122.93192
)

const deg = math.Pi / 180

// GalacticToEquatorial converts galactic (l, b) to ICRS (ra, dec), all in
// degrees. RA is normalized to [0, 360).
func GalacticToEquatorial(l, b float64) (ra, dec float64) {
	dl := (lNCP - l) * deg
	sinDec := math.Sin(ngpDec*deg)*math.Sin(b*deg) + math.Cos(ngpDec*deg)*math.Cos(b*deg)*math.Cos(dl)
	dec = math.Asin(sinDec) / deg
	y := math.Cos(b*deg) * math.Sin(dl)
	x := math.Sin(b*deg)*math.Cos(ngpDec*deg) - math.Cos(b*deg)*math.Sin(ngpDec*deg)*math.Cos(dl)
	ra = math.Mod(ngpRA+math.Atan2(y, x)/deg+360, 360)
	return ra, dec
}

// GalacticLatitude returns the galactic latitude b (degrees) of an ICRS
// position (ra, dec in degrees).
func GalacticLatitude(ra, dec float64) float64 {
	da := (ra - ngpRA) * deg
	sinB := math.Sin(ngpDec*deg)*math.Sin(dec*deg) + math.Cos(ngpDec*deg)*math.Cos(dec*deg)*math.Cos(da)
	return math.Asin(sinB) / deg
}

// Region is one rectangular (in RA/Dec) survey tile.
type Region struct {
	RAMin, RAMax   float64
	DecMin, DecMax float64
	Galactic       string // "", "north" or "south"; affects the filename only
}

// Name returns the region's stable identifier, used as the query filename
// stem and the precheck cache key.
func (r Region) Name() string {
	base := fmt.Sprintf("r%.2f_%.2f_d%.1f_%.1f", r.RAMin, r.RAMax, r.DecMin, r.DecMax)
	switch r.Galactic {
	case "north":
		return "galN_" + base
	case "south":
		return "galS_" + base
	}
	return base
}

const adqlTemplate = `SELECT ra, dec, dered_mag_g, dered_mag_r, dered_mag_i, dered_mag_z, type, snr_g, snr_r, snr_i, snr_z,
    maskbits, mag_w1, mag_w2, snr_w1, snr_w2, ebv, fitbits, parallax, parallax_ivar,
    psfdepth_g, psfdepth_r, psfdepth_i, psfdepth_z, psfdepth_w1, psfdepth_w2,
    psfsize_g, psfsize_r, psfsize_i, psfsize_z
FROM ls_dr10.tractor
WHERE ra BETWEEN %g AND %g
  AND dec BETWEEN %g AND %g
  AND (snr_z > 1.5 OR snr_i > 1.5)
`

const countTemplate = `SELECT COUNT(*) AS n
FROM ls_dr10.tractor
WHERE ra BETWEEN %g AND %g
  AND dec BETWEEN %g AND %g
  AND (snr_z > 1.5 OR snr_i > 1.5)
`

// Query renders the full-column ADQL for the region.
func (r Region) Query() string {
	return fmt.Sprintf(adqlTemplate, r.RAMin, r.RAMax, r.DecMin, r.DecMax)
}

// CountQuery renders the row-count precheck ADQL for the region.
func (r Region) CountQuery() string {
	return strings.TrimSpace(fmt.Sprintf(countTemplate, r.RAMin, r.RAMax, r.DecMin, r.DecMax)) + "\n"
}

// Footprint describes the survey area to tile.
type Footprint struct {
	RAMin, RAMax     float64
	DecStart, DecEnd float64
	DecStep          float64
	Galactic         string // "", "north" or "south"
}

// galacticPlaneLat is the |b| boundary of the Milky Way disk used when
// clipping bands against the plane.
const galacticPlaneLat = 15.0

// Tile splits the footprint into declination bands DecStep wide, clipping
// each band's RA range against the galactic plane when Galactic is set.
// Bands whose RA range clips to nothing are dropped.
func Tile(fp Footprint) []Region {
	var regions []Region
	decMin := fp.DecStart
	for decMin < fp.DecEnd {
		decMax := math.Round((decMin+fp.DecStep)*10) / 10
		// Steps below the rounding resolution would round decMax back
		// onto decMin and stall the loop.
		if decMax <= decMin {
			decMax = decMin + fp.DecStep
		}

		raMin, raMax := fp.RAMin, fp.RAMax
		if fp.Galactic != "" {
			raMin, raMax = clipToGalactic(fp, decMin)
		}

		if raMin < raMax {
			regions = append(regions, Region{
				RAMin: raMin, RAMax: raMax,
				DecMin: decMin, DecMax: decMax,
				Galactic: fp.Galactic,
			})
		}
		decMin = decMax
	}
	return regions
}

// clipToGalactic narrows the footprint's RA range at a given declination so
// the band stays on the requested side of the galactic plane.
func clipToGalactic(fp Footprint, dec float64) (raMin, raMax float64) {
	raMin, raMax = fp.RAMin, fp.RAMax
	left, right, n := planeCrossings(fp.Galactic, dec)

	switch {
	case n >= 2:
		if fp.Galactic == "north" {
			// Keep RA between the two boundary crossings.
			raMin = math.Max(fp.RAMin, left)
			raMax = math.Min(fp.RAMax, right)
		} else {
			raMax = math.Min(fp.RAMax, left)
		}
	case n == 1:
		// The whole band sits on one side of the boundary; test the
		// band's midpoint to decide which.
		testB := GalacticLatitude((fp.RAMin+fp.RAMax)/2, dec)
		isNorth := testB > galacticPlaneLat
		if (fp.Galactic == "north" && !isNorth) || (fp.Galactic == "south" && isNorth) {
			raMin, raMax = fp.RAMin, fp.RAMin // empty range, band dropped
		}
	}
	return raMin, raMax
}

// planeCrossings finds where the galactic-plane boundary (b = ±15°) crosses
// the given declination, by sampling the boundary line in longitude and
// interpolating sign changes. Returns up to two RA crossings, sorted.
func planeCrossings(side string, dec float64) (left, right float64, n int) {
	b := galacticPlaneLat
	if side == "south" {
		b = -galacticPlaneLat
	}

	const samples = 10000
	var crossings []float64
	prevRA, prevDec := GalacticToEquatorial(0, b)
	for i := 1; i < samples; i++ {
		l := 360 * float64(i) / float64(samples-1)
		ra, d := GalacticToEquatorial(l, b)
		y0, y1 := prevDec-dec, d-dec
		if y0*y1 <= 0 && y0 != y1 {
			t := -y0 / (y1 - y0)
			if t >= 0 && t <= 1 {
				crossings = append(crossings, math.Mod(prevRA+t*(ra-prevRA)+360, 360))
			}
		}
		prevRA, prevDec = ra, d
	}

	switch len(crossings) {
	case 0:
		return 0, 0, 0
	case 1:
		return crossings[0], 0, 1
	default:
		lo, hi := crossings[0], crossings[0]
		for _, c := range crossings {
			lo = math.Min(lo, c)
			hi = math.Max(hi, c)
		}
		return lo, hi, len(crossings)
	}
}
