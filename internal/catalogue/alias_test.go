package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koenigleon/oads-download/internal/domain"
)

func TestResolve(t *testing.T) {
	t.Run("accepted spellings of one product", func(t *testing.T) {
		for _, token := range []string{
			"ATL_NOM_1B", "atl_nom_1b", "ATL-NOM-1B", "atlnom1b", "atlnom", "anom", "ANOM", "a nom",
		} {
			alias, err := Resolve(token)
			require.NoError(t, err, "token %q", token)
			assert.Equal(t, "ATL_NOM_1B", alias.FullName, "token %q", token)
			assert.Equal(t, "ANOM", alias.Shorthand)
			assert.Equal(t, domain.LevelL1, alias.Level)
		}
	})

	t.Run("shorthand table", func(t *testing.T) {
		cases := map[string]string{
			"mnom":    "MSI_NOM_1B",
			"cnom":    "CPR_NOM_1B",
			"bnom":    "BBR_NOM_1B",
			"xmet":    "AUX_MET_1D",
			"xjsg":    "AUX_JSG_1D",
			"mrgr":    "MSI_RGR_1C",
			"acmcap":  "ACM_CAP_2B",
			"xorbp":   "AUX_ORBPRE",
		}
		for token, want := range cases {
			alias, err := Resolve(token)
			require.NoError(t, err, "token %q", token)
			assert.Equal(t, want, alias.FullName, "token %q", token)
		}
	})

	t.Run("ALL products accept acmb spellings", func(t *testing.T) {
		for token, want := range map[string]string{
			"alldf":    "ALL_DF__2B",
			"acmbdf":   "ALL_DF__2B",
			"acmbdf2b": "ALL_DF__2B",
			"all3d":    "ALL_3D__2B",
			"acmb3d":   "ALL_3D__2B",
		} {
			alias, err := Resolve(token)
			require.NoError(t, err, "token %q", token)
			assert.Equal(t, want, alias.FullName, "token %q", token)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := Resolve("noise")
		require.Error(t, err)
		assert.Equal(t, domain.CodeUnknownProduct, domain.CodeOf(err))
	})
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("ATL_NOM_1B"))
	assert.True(t, Known("anom"))
	assert.False(t, Known("SEN_TIN_EL1"))
}

func TestLevel(t *testing.T) {
	cases := map[string]domain.Level{
		"ATL_NOM_1B": domain.LevelL1,
		"MSI_RGR_1C": domain.LevelL1,
		"ATL_FM__2A": domain.LevelL2a,
		"ACM_CAP_2B": domain.LevelL2b,
		"AUX_MET_1D": domain.LevelAux,
		"AUX_JSG_1D": domain.LevelAux,
		"MPL_ORBSCT": domain.LevelOrbit,
		"AUX_ORBPRE": domain.LevelOrbit,
		"AUX_ORBRES": domain.LevelOrbit,
	}
	for productType, want := range cases {
		assert.Equal(t, want, Level(productType), "product %s", productType)
	}
}

func TestCollections(t *testing.T) {
	t.Run("level 1 products", func(t *testing.T) {
		assert.Equal(t, []string{
			"EarthCAREL0L1Products",
			"EarthCAREL1InstChecked",
			"EarthCAREL1Validated",
		}, Collections("ATL_NOM_1B"))
		assert.Equal(t, Collections("ATL_NOM_1B"), Collections("MSI_RGR_1C"))
	})

	t.Run("level 2 products", func(t *testing.T) {
		assert.Equal(t, []string{
			"EarthCAREL2Products",
			"EarthCAREL2InstChecked",
			"JAXAL2Products",
		}, Collections("CPR_FMR_2A"))
	})

	t.Run("meteo products", func(t *testing.T) {
		assert.Equal(t, []string{"EarthCAREL0L1Products"}, Collections("AUX_MET_1D"))
	})

	t.Run("orbit products", func(t *testing.T) {
		assert.Equal(t, []string{"EarthCAREAuxiliary"}, Collections("AUX_ORBPRE"))
		assert.Equal(t, []string{"EarthCAREAuxiliary"}, Collections("MPL_ORBSCT"))
	})
}

func TestAliasIndexCoversEveryProduct(t *testing.T) {
	for _, productType := range productTypes {
		alias, err := Resolve(productType)
		require.NoError(t, err, "product %s", productType)
		assert.Equal(t, productType, alias.FullName)
	}
}
