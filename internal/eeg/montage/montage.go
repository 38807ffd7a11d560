// Package montage provides the bundled catalogs of idealized electrode
// positions. Each catalog is a CSV table of spherical angles on a 9.5 cm
// head sphere: theta is the inclination from the vertex, phi the azimuth
// counterclockwise from the right ear (+X), so phi 90 points at the nasion.
// Positions are converted to 3-D head-frame coordinates at load.
package montage

import (
	"embed"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cortical-data/eegview/internal/eeg"
)

//go:embed catalogs/*.csv
var embeddedCatalogs embed.FS

// HEAD_RADIUS_METERS is the idealized sphere radius catalogs are placed on.
const HEAD_RADIUS_METERS = 0.095

// aliases maps legacy 10-20 temporal/parietal names onto their modern
// equivalents.
var aliases = map[string]string{
	"T3": "T7",
	"T4": "T8",
	"T5": "P7",
	"T6": "P8",
}

// Electrode is one idealized sensor position.
type Electrode struct {
	Name     string
	Position [3]float64 // head frame, meters
}

// Montage is a named, read-only catalog of electrode positions.
type Montage struct {
	Name string

	electrodes []Electrode
	byName     map[string]int
}

// Names lists the bundled catalog names, sorted.
func Names() []string {
	entries, err := embeddedCatalogs.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(names)
	return names
}

// Load returns the named bundled montage. Unknown names fail with an
// UnknownMontageError listing the bundled catalogs.
func Load(name string) (*Montage, error) {
	known := Names()
	found := false
	for _, k := range known {
		if k == name {
			found = true
			break
		}
	}
	if !found {
		return nil, &eeg.UnknownMontageError{Name: name, Known: known}
	}

	file, err := embeddedCatalogs.Open("catalogs/" + name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded catalog %s: %v", name, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %v", name, err)
	}
	return parseCatalog(name, records)
}

// parseCatalog converts catalog records into a Montage.
func parseCatalog(name string, records [][]string) (*Montage, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data in catalog %s", name)
	}

	// Validate header
	header := records[0]
	if len(header) != 3 ||
		strings.ToLower(header[0]) != "name" ||
		strings.ToLower(header[1]) != "theta_deg" ||
		strings.ToLower(header[2]) != "phi_deg" {
		return nil, fmt.Errorf("invalid header in catalog %s, expected: name,theta_deg,phi_deg", name)
	}

	m := &Montage{
		Name:       name,
		electrodes: make([]Electrode, 0, len(records)-1),
		byName:     make(map[string]int, len(records)-1),
	}

	for i, record := range records[1:] {
		if len(record) != 3 {
			return nil, fmt.Errorf("invalid record at line %d in %s: expected 3 fields", i+2, name)
		}

		electrode := strings.TrimSpace(record[0])
		if electrode == "" {
			return nil, fmt.Errorf("empty electrode name at line %d in %s", i+2, name)
		}
		if _, dup := m.byName[electrode]; dup {
			return nil, fmt.Errorf("duplicate electrode %q at line %d in %s", electrode, i+2, name)
		}

		theta, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid theta at line %d in %s: %v", i+2, name, err)
		}
		phi, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid phi at line %d in %s: %v", i+2, name, err)
		}

		if theta < 0 || theta > 180 {
			return nil, fmt.Errorf("theta %g out of range (0-180) at line %d in %s", theta, i+2, name)
		}
		if phi < 0 || phi > 360 {
			return nil, fmt.Errorf("phi %g out of range (0-360) at line %d in %s", phi, i+2, name)
		}

		thetaRad := theta * math.Pi / 180
		phiRad := phi * math.Pi / 180
		m.byName[electrode] = len(m.electrodes)
		m.electrodes = append(m.electrodes, Electrode{
			Name: electrode,
			Position: [3]float64{
				HEAD_RADIUS_METERS * math.Sin(thetaRad) * math.Cos(phiRad),
				HEAD_RADIUS_METERS * math.Sin(thetaRad) * math.Sin(phiRad),
				HEAD_RADIUS_METERS * math.Cos(thetaRad),
			},
		})
	}

	return m, nil
}

// Len returns the electrode count.
func (m *Montage) Len() int { return len(m.electrodes) }

// Electrodes returns the catalog entries in file order.
func (m *Montage) Electrodes() []Electrode {
	out := make([]Electrode, len(m.electrodes))
	copy(out, m.electrodes)
	return out
}

// ChannelNames returns the electrode names in file order.
func (m *Montage) ChannelNames() []string {
	names := make([]string, len(m.electrodes))
	for i, e := range m.electrodes {
		names[i] = e.Name
	}
	return names
}

// Position returns the idealized position of the named electrode, resolving
// legacy aliases like T3 for T7.
func (m *Montage) Position(name string) ([3]float64, bool) {
	if i, ok := m.byName[name]; ok {
		return m.electrodes[i].Position, true
	}
	if canon, ok := aliases[name]; ok {
		if i, ok := m.byName[canon]; ok {
			return m.electrodes[i].Position, true
		}
	}
	return [3]float64{}, false
}

// Apply copies montage positions onto the channels whose names match a
// catalog entry (directly or through an alias) and returns how many matched.
// Channels without a match are left untouched.
func (m *Montage) Apply(channels []eeg.Channel) int {
	matched := 0
	for i := range channels {
		pos, ok := m.Position(channels[i].Name)
		if !ok {
			continue
		}
		channels[i].HasPosition = true
		channels[i].Position = pos
		matched++
	}
	return matched
}
