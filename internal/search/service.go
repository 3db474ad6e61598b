package search

import (
	"context"
	"errors"
	"strings"

	"github.com/router-for-me/PlacesFinder/internal/maps"
	"github.com/router-for-me/PlacesFinder/internal/models"
	"github.com/router-for-me/PlacesFinder/internal/quota"
	internalsettings "github.com/router-for-me/PlacesFinder/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var (
	// ErrMissingInput indicates the location or business type was blank.
	ErrMissingInput = errors.New("search: location and business type are required")
	// ErrLocationNotFound indicates geocoding returned no match.
	ErrLocationNotFound = errors.New("search: location not found")
)

// MapsAPI is the subset of the Maps client used by the service.
type MapsAPI interface {
	Geocode(ctx context.Context, address string) ([]maps.GeocodeResult, error)
	NearbySearch(ctx context.Context, req maps.NearbyRequest) ([]maps.PlaceSummary, error)
	PlaceDetails(ctx context.Context, placeID string, fields []string) (maps.PlaceDetails, error)
}

// DetailCache stores place details between searches. Get returns nil on a miss.
type DetailCache interface {
	Get(ctx context.Context, placeID string) (*models.PlaceDetail, error)
	Put(ctx context.Context, detail *models.PlaceDetail) error
}

// Query is one form submission.
type Query struct {
	Location     string
	BusinessType string
}

// Business is one listing shown to the user.
type Business struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// Options tunes the search.
type Options struct {
	RadiusMeters int
	MaxResults   int
}

// Service geocodes a location and lists nearby businesses, charging every Maps call to the guard.
type Service struct {
	maps  MapsAPI
	guard *quota.DailyGuard
	cache DetailCache
	opts  Options
}

// NewService constructs a Service. cache may be nil.
func NewService(client MapsAPI, guard *quota.DailyGuard, cache DetailCache, opts Options) *Service {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = internalsettings.DefaultSearchRadiusMeters
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = internalsettings.DefaultMaxResults
	}
	return &Service{maps: client, guard: guard, cache: cache, opts: opts}
}

// Search returns up to MaxResults listings. Geocode and nearby-search failures abort the
// search; a failing detail lookup only drops that listing. Once ctx is done no further
// calls are charged and the listings fetched so far are returned with ctx's error.
func (s *Service) Search(ctx context.Context, q Query) ([]Business, error) {
	location := strings.TrimSpace(q.Location)
	businessType := strings.TrimSpace(q.BusinessType)
	if location == "" || businessType == "" {
		return nil, ErrMissingInput
	}

	if errCtx := ctx.Err(); errCtx != nil {
		return nil, errCtx
	}
	geocoded, err := quota.Run(s.guard, func() ([]maps.GeocodeResult, error) {
		return s.maps.Geocode(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	if len(geocoded) == 0 {
		log.WithField("location", location).Warn("geocode failed for location")
		return nil, ErrLocationNotFound
	}

	if errCtx := ctx.Err(); errCtx != nil {
		return nil, errCtx
	}
	places, err := quota.Run(s.guard, func() ([]maps.PlaceSummary, error) {
		return s.maps.NearbySearch(ctx, maps.NearbyRequest{
			Location:     geocoded[0].Location,
			RadiusMeters: s.opts.RadiusMeters,
			Type:         strings.ToLower(businessType),
			OpenNow:      false,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(places) > s.opts.MaxResults {
		places = places[:s.opts.MaxResults]
	}

	businesses := make([]Business, 0, len(places))
	for i, place := range places {
		if errCtx := ctx.Err(); errCtx != nil {
			log.WithError(errCtx).WithField("skipped", len(places)-i).Warn("search cancelled before all place details were fetched")
			return businesses, errCtx
		}
		business, errDetail := s.details(ctx, place.PlaceID)
		if errDetail != nil {
			log.WithError(errDetail).WithField("place_id", place.PlaceID).Error("failed to get place details")
			continue
		}
		businesses = append(businesses, business)
	}
	return businesses, nil
}

func (s *Service) details(ctx context.Context, placeID string) (Business, error) {
	if s.cache != nil {
		cached, errGet := s.cache.Get(ctx, placeID)
		if errGet != nil {
			log.WithError(errGet).WithField("place_id", placeID).Warn("place cache lookup failed")
		} else if cached != nil {
			return toBusiness(cached.Name, cached.Phone, cached.Address, cached.Website), nil
		}
	}

	details, err := quota.Run(s.guard, func() (maps.PlaceDetails, error) {
		return s.maps.PlaceDetails(ctx, placeID, internalsettings.DetailFields)
	})
	if err != nil {
		return Business{}, err
	}

	if s.cache != nil {
		row := &models.PlaceDetail{
			PlaceID: placeID,
			Name:    details.Name,
			Phone:   details.Phone,
			Address: details.Address,
			Website: details.Website,
		}
		if len(details.Raw) > 0 {
			row.Raw = datatypes.JSON(details.Raw)
		}
		if errPut := s.cache.Put(ctx, row); errPut != nil {
			log.WithError(errPut).WithField("place_id", placeID).Warn("place cache store failed")
		}
	}
	return toBusiness(details.Name, details.Phone, details.Address, details.Website), nil
}

func toBusiness(name, phone, address, website string) Business {
	return Business{
		Name:    orNotAvailable(name),
		Phone:   orNotAvailable(phone),
		Address: orNotAvailable(address),
		Website: orNotAvailable(website),
	}
}

func orNotAvailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return internalsettings.NotAvailable
	}
	return v
}
