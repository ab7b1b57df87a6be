package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberpay/pkg/catalog"
)

func completeData() catalog.Data {
	return catalog.Data{
		BasePrices: map[string]string{
			"starter_monthly": "price_starter_m",
			"starter_annual":  "price_starter_a",
			"premium_monthly": "price_premium_m",
			"premium_annual":  "price_premium_a",
		},
		AddOnPrices: map[string]string{
			"nutrition": "price_addon_nutrition",
			"coaching":  "price_addon_coaching",
			"labs":      "price_addon_labs",
			"skincare":  "price_addon_skincare",
		},
		Regions: []string{"WA", "or"},
	}
}

func TestNew_Complete(t *testing.T) {
	c, err := catalog.New(catalog.StaticSource{Data: completeData()})
	require.NoError(t, err)

	id, err := c.BasePrice(catalog.PlanStarter, catalog.CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, "price_starter_m", id)

	id, err = c.AddOnPrice(catalog.AddOnLabs)
	require.NoError(t, err)
	assert.Equal(t, "price_addon_labs", id)
}

func TestNew_MissingBasePriceNamesKey(t *testing.T) {
	data := completeData()
	delete(data.BasePrices, "premium_annual")

	_, err := catalog.New(catalog.StaticSource{Data: data})
	require.ErrorIs(t, err, catalog.ErrIncomplete)
	assert.Contains(t, err.Error(), "premium_annual")
}

func TestNew_MissingAddOnPrice(t *testing.T) {
	data := completeData()
	data.AddOnPrices["skincare"] = "  "

	_, err := catalog.New(catalog.StaticSource{Data: data})
	require.ErrorIs(t, err, catalog.ErrIncomplete)
	assert.Contains(t, err.Error(), "skincare")
}

func TestNew_EmptyRegions(t *testing.T) {
	data := completeData()
	data.Regions = []string{" ", ""}

	_, err := catalog.New(catalog.StaticSource{Data: data})
	assert.ErrorIs(t, err, catalog.ErrNoRegions)
}

func TestServesRegion(t *testing.T) {
	c, err := catalog.New(catalog.StaticSource{Data: completeData()})
	require.NoError(t, err)

	assert.True(t, c.ServesRegion("WA"))
	assert.True(t, c.ServesRegion("wa"))
	assert.True(t, c.ServesRegion(" OR "))
	assert.False(t, c.ServesRegion("CA"))
	assert.False(t, c.ServesRegion(""))
}

func TestParsePlan(t *testing.T) {
	p, err := catalog.ParsePlan(" Starter ")
	require.NoError(t, err)
	assert.Equal(t, catalog.PlanStarter, p)

	_, err = catalog.ParsePlan("platinum")
	assert.ErrorIs(t, err, catalog.ErrUnknownPlan)
}

func TestParseBillingCycle(t *testing.T) {
	b, err := catalog.ParseBillingCycle("ANNUAL")
	require.NoError(t, err)
	assert.Equal(t, catalog.CycleAnnual, b)

	_, err = catalog.ParseBillingCycle("weekly")
	assert.ErrorIs(t, err, catalog.ErrUnknownBillingCycle)
}

func TestParseAddOns(t *testing.T) {
	t.Run("dedupes and sorts", func(t *testing.T) {
		addOns, err := catalog.ParseAddOns([]string{"labs", "Nutrition", "labs", " coaching "})
		require.NoError(t, err)
		assert.Equal(t, []catalog.AddOn{catalog.AddOnCoaching, catalog.AddOnLabs, catalog.AddOnNutrition}, addOns)
	})

	t.Run("empty selection", func(t *testing.T) {
		addOns, err := catalog.ParseAddOns(nil)
		require.NoError(t, err)
		assert.Empty(t, addOns)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := catalog.ParseAddOns([]string{"labs", "massage"})
		assert.ErrorIs(t, err, catalog.ErrUnknownAddOn)
	})
}
