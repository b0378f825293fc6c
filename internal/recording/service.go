// Package recording orchestrates voice memo capture: it transcribes the audio,
// resolves a city from the coordinates and stores the result.
package recording

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/location"
	"github.com/memobread/memobread/internal/logger"
	"github.com/memobread/memobread/internal/observability/metrics"
	"github.com/memobread/memobread/internal/transcription"
)

// CreateRequest carries one memo submission. Latitude and Longitude must be
// both set or both nil.
type CreateRequest struct {
	AudioData string
	Timestamp *time.Time
	Latitude  *float64
	Longitude *float64
	City      *string
	Language  string
}

// LocationGroup is one entry of the recordings-by-city overview.
type LocationGroup struct {
	City         string   `json:"city"`
	Count        int      `json:"count"`
	RecordingIDs []string `json:"recording_ids"`
}

// Notifier is told about stored and deleted recordings. Failures are logged, never returned.
type Notifier interface {
	RecordingCreated(ctx context.Context, rec *datastore.Recording) error
	RecordingDeleted(ctx context.Context, id string) error
}

// Metrics is the subset of recording metrics the service reports to.
type Metrics interface {
	metrics.Recorder
	SetStored(n int)
	RecordLocation(result string)
}

// Service is the recording orchestrator.
type Service struct {
	store       datastore.Interface
	transcriber transcription.Transcriber
	resolver    location.CityResolver
	notifier    Notifier
	metrics     Metrics
	log         logger.Logger

	now                  func() time.Time
	newID                func() string
	transcriptionTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithNotifier publishes lifecycle events through n
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics reports operation metrics to m
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the module logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the UUIDv4 generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithTranscriptionTimeout bounds each transcriber call. Zero disables the bound.
func WithTranscriptionTimeout(d time.Duration) Option {
	return func(s *Service) { s.transcriptionTimeout = d }
}

// NewService wires the orchestrator to its collaborators.
func NewService(store datastore.Interface, transcriber transcription.Transcriber, resolver location.CityResolver, opts ...Option) *Service {
	s := &Service{
		store:       store,
		transcriber: transcriber,
		resolver:    resolver,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("recording")
	}
	return s
}

// Create transcribes, locates and stores a new recording. Nothing is stored
// when the transcriber or the resolver fails.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (datastore.Recording, error) {
	start := s.now()
	rec, err := s.create(ctx, req)
	s.observe(metrics.OpCreate, start, err)
	if err != nil {
		return datastore.Recording{}, err
	}

	s.refreshStored(ctx)
	s.log.WithContext(ctx).Info("recording created",
		logger.String("id", rec.ID),
		logger.Bool("has_location", rec.HasLocation()),
		logger.String("city", rec.CityOr("")))

	if s.notifier != nil {
		if err := s.notifier.RecordingCreated(ctx, rec); err != nil {
			s.log.WithContext(ctx).Warn("failed to publish recording event",
				logger.String("id", rec.ID),
				logger.Error(err))
		}
	}
	return rec.Clone(), nil
}

func (s *Service) create(ctx context.Context, req *CreateRequest) (*datastore.Recording, error) {
	if req == nil {
		return nil, errors.ValidationError("request body is required")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, errors.Newf("latitude and longitude must be provided together").
			Component("recording").
			Category(errors.CategoryValidation).
			Build()
	}

	id := s.newID()
	timestamp := s.now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	text, err := s.transcribe(ctx, req.AudioData, req.Language)
	if err != nil {
		return nil, err
	}

	city := cloneString(req.City)
	if req.Latitude != nil && req.Longitude != nil {
		resolved, err := s.resolver.ResolveCity(ctx, *req.Latitude, *req.Longitude)
		if err != nil {
			return nil, upstreamError(err, "location", "resolve_city")
		}
		s.recordLocation(resolved)
		city = &resolved
	} else {
		s.recordLocation("")
	}

	rec := &datastore.Recording{
		ID:        id,
		Text:      text,
		Timestamp: timestamp,
		Latitude:  cloneFloat(req.Latitude),
		Longitude: cloneFloat(req.Longitude),
		City:      city,
		CreatedAt: s.now(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) transcribe(ctx context.Context, audio, language string) (string, error) {
	if s.transcriptionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.transcriptionTimeout)
		defer cancel()
	}
	text, err := s.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		return "", upstreamError(err, "transcription", "transcribe")
	}
	return text, nil
}

// List returns all recordings in insertion order
func (s *Service) List(ctx context.Context) ([]datastore.Recording, error) {
	start := s.now()
	recs, err := s.store.List(ctx)
	s.observe(metrics.OpList, start, err)
	return recs, err
}

// Get returns one recording or a not-found error
func (s *Service) Get(ctx context.Context, id string) (datastore.Recording, error) {
	start := s.now()
	rec, err := s.store.Get(ctx, id)
	s.observe(metrics.OpGet, start, err)
	return rec, err
}

// Delete removes a recording; a missing id is a not-found error
func (s *Service) Delete(ctx context.Context, id string) error {
	start := s.now()
	err := s.store.Delete(ctx, id)
	s.observe(metrics.OpDelete, start, err)
	if err != nil {
		return err
	}

	s.refreshStored(ctx)
	s.log.WithContext(ctx).Info("recording deleted", logger.String("id", id))

	if s.notifier != nil {
		if err := s.notifier.RecordingDeleted(ctx, id); err != nil {
			s.log.WithContext(ctx).Warn("failed to publish recording event",
				logger.String("id", id),
				logger.Error(err))
		}
	}
	return nil
}

// Locations groups recordings by city in order of first appearance.
// Recordings without a city fall under the unknown location label.
func (s *Service) Locations(ctx context.Context) ([]LocationGroup, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]LocationGroup, 0)
	index := make(map[string]int)
	for i := range recs {
		city := recs[i].CityOr(location.UnknownLocation)
		pos, ok := index[city]
		if !ok {
			pos = len(groups)
			index[city] = pos
			groups = append(groups, LocationGroup{City: city, RecordingIDs: []string{}})
		}
		groups[pos].Count++
		groups[pos].RecordingIDs = append(groups[pos].RecordingIDs, recs[i].ID)
	}
	return groups, nil
}

// upstreamError keeps client-facing categories from a provider and marks
// everything else as an integration failure
func upstreamError(err error, upstream, operation string) error {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryTimeout),
		errors.IsCategory(err, errors.CategoryCancellation):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.New(err).
			Component("recording").
			Category(errors.CategoryTimeout).
			Context("upstream", upstream).
			Context("operation", operation).
			Build()
	case errors.Is(err, context.Canceled):
		return errors.New(err).
			Component("recording").
			Category(errors.CategoryCancellation).
			Context("upstream", upstream).
			Context("operation", operation).
			Build()
	}
	return errors.New(err).
		Component("recording").
		Category(errors.CategoryIntegration).
		Context("upstream", upstream).
		Context("operation", operation).
		Build()
}

func (s *Service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDuration(operation, s.now().Sub(start).Seconds())
	if err != nil {
		s.metrics.RecordOperation(operation, metrics.StatusError)
		var ee *errors.EnhancedError
		category := string(errors.CategoryGeneric)
		if errors.As(err, &ee) {
			category = string(ee.ErrorCategory())
		}
		s.metrics.RecordError(operation, category)
		return
	}
	s.metrics.RecordOperation(operation, metrics.StatusSuccess)
}

func (s *Service) recordLocation(city string) {
	if s.metrics == nil {
		return
	}
	switch city {
	case "":
		s.metrics.RecordLocation(metrics.LocationSkipped)
	case location.UnknownLocation:
		s.metrics.RecordLocation(metrics.LocationUnknown)
	default:
		s.metrics.RecordLocation(metrics.LocationResolved)
	}
}

func (s *Service) refreshStored(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.log.Warn("failed to count recordings", logger.Error(err))
		return
	}
	s.metrics.SetStored(n)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
