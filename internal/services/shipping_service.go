// internal/services/shipping_service.go
package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coldbrewcloud/go-shippo"
	shippomodels "github.com/coldbrewcloud/go-shippo/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/metrics"
	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

// Conversion factors used to normalize admin-entered parcel measurements
// before they reach the carrier API, which is fed pounds and inches.
const (
	PoundsPerKilogram  = 2.20462
	CentimetersPerInch = 2.54
)

// Errors surfaced to handlers. Configuration problems are the operator's to
// fix; busy means the caller should retry later.
var (
	ErrShippingConfig = errors.New("shipping provider configuration error")
	ErrShippingBusy   = errors.New("shipping provider is temporarily busy")
)

// shippoAPI is the slice of the Shippo client this service calls. Tests
// substitute a fake.
type shippoAPI interface {
	CreateAddress(input *shippomodels.AddressInput) (*shippomodels.Address, error)
	CreateShipment(input *shippomodels.ShipmentInput) (*shippomodels.Shipment, error)
	PurchaseShippingLabel(input *shippomodels.TransactionInput) (*shippomodels.Transaction, error)
}

type ShippingService struct {
	api     shippoAPI
	cfg     config.ShippingConfig
	breaker *gobreaker.CircuitBreaker[any]
}

// RateQuote is a purchasable shipping option returned to the admin.
type RateQuote struct {
	RateID        string  `json:"rate_id"`
	Carrier       string  `json:"carrier"`
	Service       string  `json:"service"`
	ServiceToken  string  `json:"service_token,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days,omitempty"`
	DurationTerms string  `json:"duration_terms,omitempty"`
}

// PurchasedLabel is the result of buying a rate.
type PurchasedLabel struct {
	TransactionID  string  `json:"transaction_id"`
	RateID         string  `json:"rate_id"`
	TrackingNumber string  `json:"tracking_number"`
	TrackingURL    string  `json:"tracking_url"`
	LabelURL       string  `json:"label_url"`
	Amount         float64 `json:"amount"`
}

func NewShippingService(cfg config.ShippingConfig) *ShippingService {
	return newShippingService(shippo.NewClient(cfg.ShippoToken), cfg)
}

func newShippingService(api shippoAPI, cfg config.ShippingConfig) *ShippingService {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "shippo",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
		},
	})

	return &ShippingService{
		api:     api,
		cfg:     cfg,
		breaker: breaker,
	}
}

// NormalizeParcel converts a parcel to pounds and inches. Already-normalized
// parcels pass through unchanged.
func NormalizeParcel(p models.ShippingParcel) models.ShippingParcel {
	out := p
	if p.WeightUnit == models.WeightUnitKilogram {
		out.Weight = p.Weight * PoundsPerKilogram
		out.WeightUnit = models.WeightUnitPound
	}
	if p.DistanceUnit == models.DistanceUnitCentimeter {
		out.Length = p.Length / CentimetersPerInch
		out.Width = p.Width / CentimetersPerInch
		out.Height = p.Height / CentimetersPerInch
		out.DistanceUnit = models.DistanceUnitInch
	}
	return out
}

// ValidateAddress checks a destination address locally, then against the
// carrier's address verification.
func (s *ShippingService) ValidateAddress(addr models.Address) error {
	if addr.Street1 == "" || addr.City == "" {
		return errors.New("street and city are required")
	}
	if !utils.IsValidUSState(addr.State) {
		return errors.New("invalid US state code")
	}
	if !utils.IsValidUSZip(addr.Zip) {
		return errors.New("invalid ZIP code")
	}

	_, err := s.execute("validate_address", func() (any, error) {
		return s.api.CreateAddress(&shippomodels.AddressInput{
			Name:     addr.Name,
			Street1:  addr.Street1,
			Street2:  addr.Street2,
			City:     addr.City,
			State:    addr.State,
			Zip:      addr.Zip,
			Country:  addr.Country,
			Phone:    addr.Phone,
			Validate: true,
		})
	})
	return err
}

// GetRates fetches purchasable rates for an order's destination and parcel.
func (s *ShippingService) GetRates(order *models.Order) ([]RateQuote, error) {
	return s.RatesFor(order.ShippingAddress, order.Parcel)
}

// RatesFor quotes rates for an arbitrary destination and parcel. Rates from
// carriers that reported compatibility errors are filtered out; an empty
// result is not an error.
func (s *ShippingService) RatesFor(destination models.Address, rawParcel models.ShippingParcel) ([]RateQuote, error) {
	if !rawParcel.IsSet() {
		return nil, errors.New("parcel weight and dimensions must be set first")
	}

	parcel := NormalizeParcel(rawParcel)
	input := &shippomodels.ShipmentInput{
		AddressFrom: s.fromAddress(),
		AddressTo:   toShippoAddress(destination),
		Parcels: []*shippomodels.ParcelInput{{
			Length:       formatMeasure(parcel.Length),
			Width:        formatMeasure(parcel.Width),
			Height:       formatMeasure(parcel.Height),
			DistanceUnit: string(parcel.DistanceUnit),
			Weight:       formatMeasure(parcel.Weight),
			MassUnit:     string(parcel.WeightUnit),
		}},
		Async: false,
	}

	result, err := s.execute("create_shipment", func() (any, error) {
		return s.api.CreateShipment(input)
	})
	if err != nil {
		return nil, err
	}
	shipment := result.(*shippomodels.Shipment)

	// Carriers that could not quote this shipment show up in the message
	// list; drop their rates rather than offering something unpurchasable.
	badCarriers := make(map[string]bool)
	for _, msg := range shipment.Messages {
		if msg != nil && msg.Source != "" {
			badCarriers[strings.ToLower(msg.Source)] = true
		}
	}

	quotes := make([]RateQuote, 0, len(shipment.Rates))
	for _, rate := range shipment.Rates {
		if rate == nil || badCarriers[strings.ToLower(rate.Provider)] {
			continue
		}
		amount, err := strconv.ParseFloat(rate.Amount, 64)
		if err != nil {
			logrus.WithField("rate_id", rate.ObjectID).Warn("skipping rate with unparsable amount")
			continue
		}
		quote := RateQuote{
			RateID:        rate.ObjectID,
			Carrier:       rate.Provider,
			Amount:        amount,
			Currency:      rate.Currency,
			EstimatedDays: rate.Days,
			DurationTerms: rate.DurationTerms,
		}
		if rate.ServiceLevel != nil {
			quote.Service = rate.ServiceLevel.Name
			quote.ServiceToken = rate.ServiceLevel.Token
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// PurchaseLabel buys the selected rate and returns the label artifacts.
func (s *ShippingService) PurchaseLabel(rateID string, expectedAmount float64) (*PurchasedLabel, error) {
	if rateID == "" {
		return nil, errors.New("rate id is required")
	}

	result, err := s.execute("purchase_label", func() (any, error) {
		return s.api.PurchaseShippingLabel(&shippomodels.TransactionInput{
			Rate:          rateID,
			LabelFileType: "PDF",
			Async:         false,
		})
	})
	if err != nil {
		return nil, err
	}
	tx := result.(*shippomodels.Transaction)

	if !strings.EqualFold(tx.Status, "SUCCESS") {
		var details []string
		for _, msg := range tx.Messages {
			if msg != nil && msg.Text != "" {
				details = append(details, msg.Text)
			}
		}
		if len(details) == 0 {
			details = append(details, "label purchase failed with status "+tx.Status)
		}
		return nil, errors.New(strings.Join(details, "; "))
	}

	return &PurchasedLabel{
		TransactionID:  tx.ObjectID,
		RateID:         rateID,
		TrackingNumber: tx.TrackingNumber,
		TrackingURL:    tx.TrackingURLProvider,
		LabelURL:       tx.LabelURL,
		Amount:         expectedAmount,
	}, nil
}

func (s *ShippingService) execute(operation string, fn func() (any, error)) (any, error) {
	result, err := s.breaker.Execute(fn)
	if err != nil {
		metrics.ShippoRequestsCounter.WithLabelValues(operation, "error").Inc()
		return nil, mapShippoError(err)
	}
	metrics.ShippoRequestsCounter.WithLabelValues(operation, "success").Inc()
	return result, nil
}

// mapShippoError translates transport and provider failures into the two
// actionable categories plus a generic wrap.
func mapShippoError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrShippingBusy
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid token"):
		return ErrShippingConfig
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return ErrShippingBusy
	}
	return fmt.Errorf("shipping provider error: %w", err)
}

func (s *ShippingService) fromAddress() *shippomodels.AddressInput {
	return &shippomodels.AddressInput{
		Name:    s.cfg.FromName,
		Street1: s.cfg.FromStreet1,
		City:    s.cfg.FromCity,
		State:   s.cfg.FromState,
		Zip:     s.cfg.FromZip,
		Country: s.cfg.FromCountry,
		Phone:   s.cfg.FromPhone,
		Email:   s.cfg.FromEmail,
	}
}

func toShippoAddress(addr models.Address) *shippomodels.AddressInput {
	return &shippomodels.AddressInput{
		Name:    addr.Name,
		Street1: addr.Street1,
		Street2: addr.Street2,
		City:    addr.City,
		State:   addr.State,
		Zip:     addr.Zip,
		Country: addr.Country,
		Phone:   addr.Phone,
	}
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
