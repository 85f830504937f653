// Package catalogue holds the static EarthCARE product-type table: alias
// resolution, product levels and the catalogue collections a product type can
// be found in. The table is built once at init and is immutable.
package catalogue

import (
	"strings"

	"github.com/koenigleon/oads-download/internal/domain"
)

// productTypes lists every supported EarthCARE product-type identifier.
var productTypes = []string{
	// ATLID level 1b
	"ATL_NOM_1B",
	"ATL_DCC_1B",
	"ATL_CSC_1B",
	"ATL_FSC_1B",
	// MSI level 1b
	"MSI_NOM_1B",
	"MSI_BBS_1B",
	"MSI_SD1_1B",
	"MSI_SD2_1B",
	// BBR level 1b
	"BBR_NOM_1B",
	"BBR_SNG_1B",
	"BBR_SOL_1B",
	"BBR_LIN_1B",
	// CPR level 1b (JAXA product)
	"CPR_NOM_1B",
	// MSI level 1c
	"MSI_RGR_1C",
	// level 1d
	"AUX_MET_1D",
	"AUX_JSG_1D",
	// ATLID level 2a
	"ATL_FM__2A",
	"ATL_AER_2A",
	"ATL_ICE_2A",
	"ATL_TC__2A",
	"ATL_EBD_2A",
	"ATL_CTH_2A",
	"ATL_ALD_2A",
	// MSI level 2a
	"MSI_CM__2A",
	"MSI_COP_2A",
	"MSI_AOT_2A",
	// CPR level 2a
	"CPR_FMR_2A",
	"CPR_CD__2A",
	"CPR_TC__2A",
	"CPR_CLD_2A",
	"CPR_APC_2A",
	// ATLID-MSI level 2b
	"AM__MO__2B",
	"AM__CTH_2B",
	"AM__ACD_2B",
	// ATLID-CPR level 2b
	"AC__TC__2B",
	// BBR-MSI-(ATLID) level 2b
	"BM__RAD_2B",
	"BMA_FLX_2B",
	// ATLID-CPR-MSI level 2b
	"ACM_CAP_2B",
	"ACM_COM_2B",
	"ACM_RT__2B",
	// ATLID-CPR-MSI-BBR level 2b
	"ALL_DF__2B",
	"ALL_3D__2B",
	// Orbit files in the auxiliary data collection
	"MPL_ORBSCT",
	"AUX_ORBPRE",
	"AUX_ORBRES",
}

// meteoTypes and orbitTypes fall outside the level hierarchy on disk.
var meteoTypes = map[string]bool{
	"AUX_MET_1D": true,
	"AUX_JSG_1D": true,
}

var orbitTypes = map[string]bool{
	"MPL_ORBSCT": true,
	"AUX_ORBPRE": true,
	"AUX_ORBRES": true,
}

// shorthandReplacements compress the instrument prefix of the medium name
// into the single-letter shorthand form (e.g. ATL_NOM_1B -> ANOM).
var shorthandReplacements = [][2]string{
	{"atl", "a"},
	{"msi", "m"},
	{"bbr", "b"},
	{"cpr", "c"},
	{"aux", "x"},
}

var aliasIndex map[string]domain.ProductAlias

func init() {
	aliasIndex = buildIndex()
}

// buildIndex derives every accepted spelling for each product type: the long
// name (underscores stripped), the medium name (long minus the level suffix)
// and the shorthand. ALL_* products additionally accept acmb* spellings.
func buildIndex() map[string]domain.ProductAlias {
	index := make(map[string]domain.ProductAlias)
	for _, fullName := range productTypes {
		longName := strings.ToLower(strings.ReplaceAll(fullName, "_", ""))
		mediumName := longName[:len(longName)-2]
		shortName := mediumName
		for _, r := range shorthandReplacements {
			shortName = strings.ReplaceAll(shortName, r[0], r[1])
		}

		alias := domain.ProductAlias{
			FullName:  fullName,
			Shorthand: strings.ToUpper(shortName),
			Level:     levelOf(fullName),
		}

		keys := []string{longName, mediumName, shortName}
		if strings.HasPrefix(fullName, "ALL_") {
			keys = append(keys, "acmb"+longName[3:], "acmb"+shortName[3:])
		}
		for _, key := range keys {
			index[key] = alias
		}
	}
	return index
}

// normalizeToken lowercases and strips spaces, dashes and underscores so
// spellings like "ATL-NOM-1B" or "a nom" resolve too.
func normalizeToken(token string) string {
	token = strings.ToLower(token)
	for _, cut := range []string{" ", "-", "_"} {
		token = strings.ReplaceAll(token, cut, "")
	}
	return token
}

// Resolve looks up a product alias by any accepted spelling, full name or
// shorthand, case-insensitive. Unknown tokens yield a per-product error so a
// multi-product run can report one bad token without aborting the others.
func Resolve(token string) (domain.ProductAlias, error) {
	alias, ok := aliasIndex[normalizeToken(token)]
	if !ok {
		return domain.ProductAlias{}, domain.ErrUnknownProduct(token)
	}
	return alias, nil
}

// Known reports whether a full product-type identifier is in the table.
func Known(productType string) bool {
	_, ok := aliasIndex[normalizeToken(productType)]
	return ok
}

// Level returns the processing tier used by the path planner.
func Level(productType string) domain.Level {
	return levelOf(productType)
}

func levelOf(productType string) domain.Level {
	switch {
	case meteoTypes[productType]:
		return domain.LevelAux
	case orbitTypes[productType]:
		return domain.LevelOrbit
	}
	switch levelSuffix(productType) {
	case "2A":
		return domain.LevelL2a
	case "2B":
		return domain.LevelL2b
	default:
		return domain.LevelL1
	}
}

func levelSuffix(productType string) string {
	if i := strings.LastIndex(productType, "_"); i >= 0 {
		return productType[i+1:]
	}
	return productType
}

// Collections returns the candidate catalogue collection identifiers for a
// product type, in the order they should be tried. The caller intersects the
// result with the collections the account is entitled to.
func Collections(productType string) []string {
	switch levelSuffix(productType) {
	case "1B", "1C":
		return []string{
			"EarthCAREL0L1Products",
			"EarthCAREL1InstChecked",
			"EarthCAREL1Validated",
		}
	case "2A", "2B":
		return []string{
			"EarthCAREL2Products",
			"EarthCAREL2InstChecked",
			"JAXAL2Products",
		}
	case "1D":
		return []string{"EarthCAREL0L1Products"}
	case "ORBSCT", "ORBPRE", "ORBRES":
		return []string{"EarthCAREAuxiliary"}
	default:
		return []string{
			"EarthCAREL0L1Products",
			"EarthCAREL1InstChecked",
			"EarthCAREL1Validated",
			"EarthCAREL2Products",
			"EarthCAREL2InstChecked",
			"JAXAL2Products",
			"EarthCAREAuxiliary",
		}
	}
}
