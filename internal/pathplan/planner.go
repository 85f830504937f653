// Package pathplan derives the destination directory for a product from its
// level and acquisition date. Planning is a pure function; directory creation
// happens in the download pipeline and is idempotent.
package pathplan

import (
	"fmt"
	"path/filepath"

	"github.com/koenigleon/oads-download/internal/catalogue"
	"github.com/koenigleon/oads-download/internal/domain"
)

// Folder names for products outside the date hierarchy.
const (
	meteoFolder = "Meteo_Supporting_Files"
	orbitFolder = "Orbit_Data_Files"
)

// Plan returns the destination directory for a record under dataDir:
// level products go to dataDir/<level>/<YYYY>/<MM>/<DD> keyed by the
// acquisition start date (UTC), auxiliary and orbit products to their fixed
// folders. Records sharing level and acquisition date always resolve to the
// same directory.
func Plan(record domain.ProductRecord, dataDir string) string {
	switch catalogue.Level(record.ProductType) {
	case domain.LevelAux:
		return filepath.Join(dataDir, meteoFolder)
	case domain.LevelOrbit:
		return filepath.Join(dataDir, orbitFolder)
	}

	acquired := record.AcquisitionStart.UTC()
	return filepath.Join(
		dataDir,
		string(catalogue.Level(record.ProductType)),
		fmt.Sprintf("%04d", acquired.Year()),
		fmt.Sprintf("%02d", acquired.Month()),
		fmt.Sprintf("%02d", acquired.Day()),
	)
}
