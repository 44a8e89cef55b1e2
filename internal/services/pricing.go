package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gopkg.in/yaml.v3"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

//go:embed pricing_bands.yaml
var defaultBandsYAML []byte

type bandConfig struct {
	types.PricingBand `yaml:",inline"`
	// MaxValue bounds the expected job value this band applies to; zero
	// means unbounded (the catch-all band).
	MaxValue   float64 `yaml:"max_value"`
	TakeRate   float64 `yaml:"take_rate"`
	PriceFloor float64 `yaml:"price_floor"`
	PriceCap   float64 `yaml:"price_cap"`
}

type bandsFile struct {
	Bands []bandConfig `yaml:"bands"`
}

func loadBandConfig(log *logger.Logger) ([]bandConfig, error) {
	raw := defaultBandsYAML
	if path := os.Getenv("PRICING_BANDS_PATH"); path != "" {
		fileRaw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pricing bands from %s: %w", path, err)
		}
		raw = fileRaw
		log.Info("Loaded pricing bands from file", "path", path)
	}
	var parsed bandsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse pricing bands: %w", err)
	}
	if len(parsed.Bands) == 0 {
		return nil, fmt.Errorf("pricing bands config is empty")
	}
	for _, b := range parsed.Bands {
		if b.TakeRate <= 0 || b.TakeRate >= 1 {
			return nil, fmt.Errorf("band %q: take_rate must be in (0,1)", b.Code)
		}
		if b.PriceFloor < 0 || b.PriceCap < b.PriceFloor {
			return nil, fmt.Errorf("band %q: need 0 <= price_floor <= price_cap", b.Code)
		}
	}
	return parsed.Bands, nil
}

// selectBand picks the first band whose max_value covers the expected job
// value; a zero max_value band is the catch-all.
func selectBand(bands []bandConfig, expectedValue float64) *bandConfig {
	for i := range bands {
		if bands[i].MaxValue == 0 || expectedValue <= bands[i].MaxValue {
			return &bands[i]
		}
	}
	return &bands[len(bands)-1]
}

// PricingService computes the point-in-time lead price for a job. Prices are
// never persisted here; the payment service snapshots the breakdown at
// purchase time.
type PricingService interface {
	PriceForJob(ctx context.Context, jobID uuid.UUID) (*types.LeadPrice, error)
}

type pricingService struct {
	db          *gorm.DB
	log         *logger.Logger
	jobRepo     repos.JobRepo
	serviceRepo repos.ServiceRepo
	bands       []bandConfig
	currency    string
}

func NewPricingService(
	db *gorm.DB,
	log *logger.Logger,
	jobRepo repos.JobRepo,
	serviceRepo repos.ServiceRepo,
	currency string,
) (PricingService, error) {
	serviceLog := log.With("service", "PricingService")
	bands, err := loadBandConfig(serviceLog)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "HUF"
	}
	return &pricingService{
		db:          db,
		log:         serviceLog,
		jobRepo:     jobRepo,
		serviceRepo: serviceRepo,
		bands:       bands,
		currency:    currency,
	}, nil
}

func (ps *pricingService) PriceForJob(ctx context.Context, jobID uuid.UUID) (*types.LeadPrice, error) {
	job, err := ps.jobRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("job %s not found", jobID))
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	svc, err := ps.serviceRepo.GetByID(ctx, nil, job.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("service %s not found", job.ServiceID))
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	value := expectedJobValue(svc, job.Budget)
	band := selectBand(ps.bands, value)
	price := computeLeadPrice(job, svc, band, ps.currency)

	ps.log.Debug("computed lead price",
		"job_id", jobID,
		"final_price", price.FinalPrice,
		"band", band.Code,
		"applied_constraint", price.Breakdown.AppliedConstraint,
	)
	return price, nil
}
