package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"plate-service/internal/client"
	"plate-service/internal/model"
	"plate-service/internal/plate"
	"plate-service/internal/repository"
	"plate-service/internal/utils"
)

const (
	MaxSources       = 10
	DefaultListLimit = 100
	MaxListLimit     = 500
	MaxLabelLength   = 100
)

type ReadingStore interface {
	Create(ctx context.Context, reading *model.PlateReading) error
	GetByID(ctx context.Context, id string) (*model.PlateReading, error)
	List(ctx context.Context, filter repository.PlateReadingListFilter) ([]model.PlateReading, error)
}

type VehicleLookup interface {
	GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
}

type TextRecognizer interface {
	Configured() bool
	Recognize(ctx context.Context, imageBase64 string) ([]client.OCRText, error)
}

type PlateService struct {
	extractor  *plate.Extractor
	readings   ReadingStore
	vehicles   VehicleLookup
	recognizer TextRecognizer
	log        zerolog.Logger
}

func NewPlateService(
	extractor *plate.Extractor,
	readings ReadingStore,
	vehicles VehicleLookup,
	recognizer TextRecognizer,
	log zerolog.Logger,
) *PlateService {
	return &PlateService{
		extractor:  extractor,
		readings:   readings,
		vehicles:   vehicles,
		recognizer: recognizer,
		log:        log,
	}
}

type SourceInput struct {
	Text             string
	SourceLabel      string
	SourceConfidence *float64
}

type ImageInput struct {
	ImageBase64 string
	SourceLabel string
}

type ListReadingsInput struct {
	Plate  string
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

func (s *PlateService) Extract(ctx context.Context, principal model.Principal, text string) ([]plate.Candidate, error) {
	if !principal.Role.Valid() {
		return nil, ErrPermissionDenied
	}

	candidates, err := s.extractor.ExtractFromText(text)
	if err != nil {
		return nil, translateExtractError(err)
	}
	return candidates, nil
}

// Best ranks candidates across sources. ErrNotFound is returned when no
// source yields a candidate.
func (s *PlateService) Best(ctx context.Context, principal model.Principal, inputs []SourceInput) (*plate.Result, error) {
	if !principal.Role.Valid() {
		return nil, ErrPermissionDenied
	}

	result, err := s.extractBest(inputs)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result, nil
}

// CreateReading ranks candidates across sources, resolves the best plate
// against the vehicle registry and stores the outcome. A reading without
// candidates is stored with status NO_MATCH.
func (s *PlateService) CreateReading(ctx context.Context, principal model.Principal, inputs []SourceInput) (*model.PlateReading, error) {
	if !principal.Role.Valid() {
		return nil, ErrPermissionDenied
	}

	result, err := s.extractBest(inputs)
	if err != nil {
		return nil, err
	}

	reading := &model.PlateReading{
		CreatedByUserID: principal.UserID,
		Status:          model.PlateReadingStatusNoMatch,
		SourceCount:     len(inputs),
	}

	if result != nil {
		if err := s.resolve(ctx, reading, result); err != nil {
			return nil, err
		}
	}

	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("store reading: %w", err)
	}

	event := s.log.Info().
		Str("reading_id", reading.ID.String()).
		Str("status", string(reading.Status)).
		Int("sources", reading.SourceCount)
	if reading.BestPlate != nil {
		event = event.Str("plate", *reading.BestPlate)
	}
	event.Msg("plate reading stored")

	return reading, nil
}

// CreateReadingFromImage runs the image through the OCR service and stores a
// reading built from the returned texts.
func (s *PlateService) CreateReadingFromImage(ctx context.Context, principal model.Principal, input ImageInput) (*model.PlateReading, error) {
	if !principal.Role.Valid() {
		return nil, ErrPermissionDenied
	}
	if s.recognizer == nil || !s.recognizer.Configured() {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, client.ErrOCRNotConfigured)
	}

	image := strings.TrimSpace(input.ImageBase64)
	if image == "" {
		return nil, ErrInvalidInput
	}
	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", ErrInvalidInput)
	}

	texts, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		s.log.Warn().Err(err).Msg("ocr recognition failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	label := strings.TrimSpace(input.SourceLabel)
	inputs := make([]SourceInput, 0, len(texts))
	for i, t := range texts {
		if i == MaxSources {
			break
		}
		engine := strings.TrimSpace(t.Engine)
		if engine == "" {
			engine = fmt.Sprintf("ocr_%d", i+1)
		}
		if label != "" {
			engine = label + ":" + engine
		}
		inputs = append(inputs, SourceInput{
			Text:             t.Text,
			SourceLabel:      truncateLabel(engine),
			SourceConfidence: clampConfidence(t.Confidence),
		})
	}

	if len(inputs) == 0 {
		reading := &model.PlateReading{
			CreatedByUserID: principal.UserID,
			Status:          model.PlateReadingStatusNoMatch,
		}
		if err := s.readings.Create(ctx, reading); err != nil {
			return nil, fmt.Errorf("store reading: %w", err)
		}
		return reading, nil
	}

	return s.CreateReading(ctx, principal, inputs)
}

func (s *PlateService) GetReading(ctx context.Context, principal model.Principal, id string) (*model.PlateReading, error) {
	reading, err := s.readings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !canAccessReading(principal, reading) {
		return nil, ErrPermissionDenied
	}

	if reading.VehicleID != nil {
		vehicle, err := s.vehicles.GetByID(ctx, *reading.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("lookup vehicle: %w", err)
		}
		// nil when the vehicle was removed after the reading was stored
		reading.Vehicle = vehicle
	}

	return reading, nil
}

func (s *PlateService) ListReadings(ctx context.Context, principal model.Principal, input ListReadingsInput) ([]model.PlateReading, error) {
	filter := repository.PlateReadingListFilter{
		From:  input.From,
		To:    input.To,
		Limit: input.Limit,
	}

	if principal.IsAdmin() {
		// admins see every reading
	} else if principal.IsTenant() {
		userID := principal.UserID.String()
		filter.CreatedByUserID = &userID
	} else {
		return nil, ErrPermissionDenied
	}

	if input.Plate != "" {
		normalized := utils.NormalizePlate(input.Plate)
		filter.NormalizedPlate = &normalized
	}

	if input.Status != "" {
		status := model.PlateReadingStatus(strings.ToUpper(input.Status))
		if !status.Valid() {
			return nil, ErrInvalidInput
		}
		filter.Status = &status
	}

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}

	return s.readings.List(ctx, filter)
}

func (s *PlateService) FindVehicle(ctx context.Context, principal model.Principal, rawPlate string) (*model.Vehicle, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	normalized := utils.NormalizePlate(rawPlate)
	if normalized == "" {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.vehicles.GetByPlate(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	return vehicle, nil
}

func (s *PlateService) extractBest(inputs []SourceInput) (*plate.Result, error) {
	sources, err := toSources(inputs)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.ExtractBest(sources)
	if err != nil {
		return nil, translateExtractError(err)
	}
	return result, nil
}

func (s *PlateService) resolve(ctx context.Context, reading *model.PlateReading, result *plate.Result) error {
	best := result.Best
	normalized := utils.NormalizePlate(best.Text)
	score := best.FinalScore
	pattern := best.Pattern
	source := best.SourceLabel

	reading.BestPlate = &best.Text
	reading.NormalizedPlate = &normalized
	reading.BestScore = &score
	reading.PatternLabel = &pattern
	reading.SourceLabel = &source
	reading.CandidateCount = result.Total
	reading.Status = model.PlateReadingStatusUnregistered

	vehicle, err := s.vehicles.GetByPlate(ctx, normalized)
	if err != nil {
		return fmt.Errorf("lookup vehicle: %w", err)
	}
	if vehicle != nil {
		reading.VehicleID = &vehicle.ID
		reading.Status = model.PlateReadingStatusMatched
	}

	reading.Candidates = make([]model.PlateReadingCandidate, 0, len(result.Top))
	for i, c := range result.Top {
		reading.Candidates = append(reading.Candidates, model.PlateReadingCandidate{
			Rank:             i + 1,
			Text:             c.Text,
			PatternLabel:     c.Pattern,
			Confidence:       c.Confidence,
			Position:         c.Position,
			Variant:          string(c.Variant),
			SourceLabel:      c.SourceLabel,
			SourceConfidence: c.SourceConfidence,
			FinalScore:       c.FinalScore,
		})
	}

	return nil
}

func toSources(inputs []SourceInput) ([]plate.TextSource, error) {
	if len(inputs) == 0 || len(inputs) > MaxSources {
		return nil, fmt.Errorf("%w: between 1 and %d sources required", ErrInvalidInput, MaxSources)
	}

	sources := make([]plate.TextSource, 0, len(inputs))
	for i, in := range inputs {
		if in.SourceConfidence != nil && (*in.SourceConfidence < 0 || *in.SourceConfidence > 100) {
			return nil, fmt.Errorf("%w: source confidence must be within 0..100", ErrInvalidInput)
		}
		label := strings.TrimSpace(in.SourceLabel)
		if label == "" {
			label = fmt.Sprintf("source_%d", i+1)
		}
		if utf8.RuneCountInString(label) > MaxLabelLength {
			return nil, fmt.Errorf("%w: source label longer than %d characters", ErrInvalidInput, MaxLabelLength)
		}
		sources = append(sources, plate.TextSource{
			Text:       in.Text,
			Label:      label,
			Confidence: in.SourceConfidence,
		})
	}
	return sources, nil
}

func translateExtractError(err error) error {
	if errors.Is(err, plate.ErrInputTooLong) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}

func truncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	return string([]rune(label)[:MaxLabelLength])
}

func clampConfidence(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return &c
}

func canAccessReading(principal model.Principal, reading *model.PlateReading) bool {
	if principal.IsAdmin() {
		return true
	}
	if principal.IsTenant() {
		return reading.CreatedByUserID == principal.UserID
	}
	return false
}
