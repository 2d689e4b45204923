// internal/services/shipping_service_test.go
package services

import (
	"errors"
	"testing"

	shippomodels "github.com/coldbrewcloud/go-shippo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/models"
)

type fakeShippoAPI struct {
	createAddress  func(input *shippomodels.AddressInput) (*shippomodels.Address, error)
	createShipment func(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error)
	purchaseLabel  func(input *shippomodels.TransactionInput) (*shippomodels.Transaction, error)
}

func (f *fakeShippoAPI) CreateAddress(input *shippomodels.AddressInput) (*shippomodels.Address, error) {
	return f.createAddress(input)
}

func (f *fakeShippoAPI) CreateShipment(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error) {
	return f.createShipment(input)
}

func (f *fakeShippoAPI) PurchaseShippingLabel(input *shippomodels.TransactionInput) (*shippomodels.Transaction, error) {
	return f.purchaseLabel(input)
}

func testShippingConfig() config.ShippingConfig {
	return config.ShippingConfig{
		FromName:    "Aurora Atelier",
		FromStreet1: "12 Bench St",
		FromCity:    "Portland",
		FromState:   "OR",
		FromZip:     "97201",
		FromCountry: "US",
	}
}

func destinationAddress() models.Address {
	return models.Address{
		Name:    "Jamie Rivera",
		Street1: "500 Pine Ave",
		City:    "Austin",
		State:   "TX",
		Zip:     "73301",
		Country: "US",
	}
}

func TestNormalizeParcelConvertsMetricUnits(t *testing.T) {
	parcel := models.ShippingParcel{
		Weight:       2,
		WeightUnit:   models.WeightUnitKilogram,
		Length:       25.4,
		Width:        12.7,
		Height:       5.08,
		DistanceUnit: models.DistanceUnitCentimeter,
	}

	out := NormalizeParcel(parcel)
	assert.InDelta(t, 4.40924, out.Weight, 0.0001)
	assert.Equal(t, models.WeightUnitPound, out.WeightUnit)
	assert.InDelta(t, 10.0, out.Length, 0.0001)
	assert.InDelta(t, 5.0, out.Width, 0.0001)
	assert.InDelta(t, 2.0, out.Height, 0.0001)
	assert.Equal(t, models.DistanceUnitInch, out.DistanceUnit)

	// Input is not mutated.
	assert.Equal(t, 2.0, parcel.Weight)
	assert.Equal(t, models.WeightUnitKilogram, parcel.WeightUnit)
}

func TestNormalizeParcelPassesImperialThrough(t *testing.T) {
	parcel := models.ShippingParcel{
		Weight:       1.5,
		WeightUnit:   models.WeightUnitPound,
		Length:       8,
		Width:        6,
		Height:       4,
		DistanceUnit: models.DistanceUnitInch,
	}

	assert.Equal(t, parcel, NormalizeParcel(parcel))
}

func TestRatesForFiltersCarriersWithErrors(t *testing.T) {
	api := &fakeShippoAPI{
		createShipment: func(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error) {
			parcels, ok := input.Parcels.([]*shippomodels.ParcelInput)
			require.True(t, ok)
			require.Len(t, parcels, 1)
			assert.Equal(t, "lb", parcels[0].MassUnit)
			assert.Equal(t, "in", parcels[0].DistanceUnit)

			return &shippomodels.Shipment{
				Rates: []*shippomodels.Rate{
					{
						CommonOutputFields: shippomodels.CommonOutputFields{ObjectID: "rate_usps"},
						Provider:           "USPS",
						Amount:             "8.45",
						Currency:           "USD",
						Days:               3,
						ServiceLevel:       &shippomodels.ServiceLevel{Name: "Priority Mail", Token: "usps_priority"},
					},
					{
						CommonOutputFields: shippomodels.CommonOutputFields{ObjectID: "rate_fedex"},
						Provider:           "FedEx",
						Amount:             "14.10",
						Currency:           "USD",
					},
					{
						CommonOutputFields: shippomodels.CommonOutputFields{ObjectID: "rate_bad_amount"},
						Provider:           "USPS",
						Amount:             "not-a-number",
						Currency:           "USD",
					},
				},
				Messages: []*shippomodels.OutputMessage{
					{Source: "fedex", Code: "account", Text: "account not configured"},
				},
			}, nil
		},
	}
	svc := newShippingService(api, testShippingConfig())

	parcel := models.ShippingParcel{Weight: 1, WeightUnit: models.WeightUnitPound, Length: 8, Width: 6, Height: 4, DistanceUnit: models.DistanceUnitInch}
	quotes, err := svc.RatesFor(destinationAddress(), parcel)
	require.NoError(t, err)

	require.Len(t, quotes, 1)
	assert.Equal(t, "rate_usps", quotes[0].RateID)
	assert.Equal(t, "USPS", quotes[0].Carrier)
	assert.Equal(t, "Priority Mail", quotes[0].Service)
	assert.Equal(t, "usps_priority", quotes[0].ServiceToken)
	assert.InDelta(t, 8.45, quotes[0].Amount, 0.0001)
	assert.Equal(t, 3, quotes[0].EstimatedDays)
}

func TestRatesForEmptyResultIsNotAnError(t *testing.T) {
	api := &fakeShippoAPI{
		createShipment: func(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error) {
			return &shippomodels.Shipment{}, nil
		},
	}
	svc := newShippingService(api, testShippingConfig())

	parcel := models.ShippingParcel{Weight: 1, WeightUnit: models.WeightUnitPound, Length: 8, Width: 6, Height: 4, DistanceUnit: models.DistanceUnitInch}
	quotes, err := svc.RatesFor(destinationAddress(), parcel)
	assert.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRatesForRequiresParcel(t *testing.T) {
	svc := newShippingService(&fakeShippoAPI{}, testShippingConfig())

	_, err := svc.RatesFor(destinationAddress(), models.ShippingParcel{})
	assert.Error(t, err)
}

func TestPurchaseLabelSuccess(t *testing.T) {
	api := &fakeShippoAPI{
		purchaseLabel: func(input *shippomodels.TransactionInput) (*shippomodels.Transaction, error) {
			assert.Equal(t, "rate_usps", input.Rate)
			assert.Equal(t, "PDF", input.LabelFileType)
			return &shippomodels.Transaction{
				CommonOutputFields:  shippomodels.CommonOutputFields{ObjectID: "txn_1"},
				Status:              "SUCCESS",
				TrackingNumber:      "9400100000000000000000",
				TrackingURLProvider: "https://tools.usps.com/track",
				LabelURL:            "https://labels.example/txn_1.pdf",
			}, nil
		},
	}
	svc := newShippingService(api, testShippingConfig())

	label, err := svc.PurchaseLabel("rate_usps", 8.45)
	require.NoError(t, err)
	assert.Equal(t, "txn_1", label.TransactionID)
	assert.Equal(t, "rate_usps", label.RateID)
	assert.Equal(t, "9400100000000000000000", label.TrackingNumber)
	assert.Equal(t, "https://labels.example/txn_1.pdf", label.LabelURL)
	assert.InDelta(t, 8.45, label.Amount, 0.0001)
}

func TestPurchaseLabelSurfacesProviderMessages(t *testing.T) {
	api := &fakeShippoAPI{
		purchaseLabel: func(input *shippomodels.TransactionInput) (*shippomodels.Transaction, error) {
			return &shippomodels.Transaction{
				Status: "ERROR",
				Messages: []*shippomodels.OutputMessage{
					{Text: "rate has expired"},
				},
			}, nil
		},
	}
	svc := newShippingService(api, testShippingConfig())

	_, err := svc.PurchaseLabel("rate_old", 8.45)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate has expired")
}

func TestPurchaseLabelRequiresRateID(t *testing.T) {
	svc := newShippingService(&fakeShippoAPI{}, testShippingConfig())

	_, err := svc.PurchaseLabel("", 0)
	assert.Error(t, err)
}

func TestValidateAddressLocalChecks(t *testing.T) {
	svc := newShippingService(&fakeShippoAPI{}, testShippingConfig())

	addr := destinationAddress()
	addr.Street1 = ""
	assert.Error(t, svc.ValidateAddress(addr))

	addr = destinationAddress()
	addr.State = "ZZ"
	assert.Error(t, svc.ValidateAddress(addr))

	addr = destinationAddress()
	addr.Zip = "1234"
	assert.Error(t, svc.ValidateAddress(addr))
}

func TestValidateAddressCallsCarrier(t *testing.T) {
	called := false
	api := &fakeShippoAPI{
		createAddress: func(input *shippomodels.AddressInput) (*shippomodels.Address, error) {
			called = true
			assert.True(t, input.Validate)
			assert.Equal(t, "Austin", input.City)
			return &shippomodels.Address{}, nil
		},
	}
	svc := newShippingService(api, testShippingConfig())

	assert.NoError(t, svc.ValidateAddress(destinationAddress()))
	assert.True(t, called)
}

func TestMapShippoErrorCategories(t *testing.T) {
	assert.ErrorIs(t, mapShippoError(errors.New("401 unauthorized")), ErrShippingConfig)
	assert.ErrorIs(t, mapShippoError(errors.New("invalid token provided")), ErrShippingConfig)
	assert.ErrorIs(t, mapShippoError(errors.New("429 too many requests")), ErrShippingBusy)
	assert.ErrorIs(t, mapShippoError(errors.New("rate limit exceeded")), ErrShippingBusy)

	generic := mapShippoError(errors.New("connection reset"))
	assert.NotErrorIs(t, generic, ErrShippingBusy)
	assert.NotErrorIs(t, generic, ErrShippingConfig)
	assert.Contains(t, generic.Error(), "shipping provider error")
}

func TestRatesForMapsTransportErrors(t *testing.T) {
	api := &fakeShippoAPI{
		createShipment: func(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error) {
			return nil, errors.New("401 unauthorized")
		},
	}
	svc := newShippingService(api, testShippingConfig())

	parcel := models.ShippingParcel{Weight: 1, WeightUnit: models.WeightUnitPound, Length: 8, Width: 6, Height: 4, DistanceUnit: models.DistanceUnitInch}
	_, err := svc.RatesFor(destinationAddress(), parcel)
	assert.ErrorIs(t, err, ErrShippingConfig)
}
