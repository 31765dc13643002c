package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkwise/internal/config"
	"parkwise/internal/database"
	"parkwise/internal/domain"
	"parkwise/internal/inventory"
	"parkwise/internal/metrics"
	"parkwise/internal/models"
	"parkwise/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WizardService drives the booking flow step machine:
// search -> loading -> spots -> options -> payment -> confirmation.
//
// The loading step simulates the inventory fetch. Completion is guarded
// by the state revision: any user action taken while the fetch is in
// flight bumps the revision and the late completion is dropped instead
// of yanking the user forward.
type WizardService struct {
	states   domain.StateManager
	catalog  *inventory.Catalog
	bookings *BookingService
	users    *UserService
	cfg      config.WizardConfig
	logger   *zerolog.Logger
}

func NewWizardService(states domain.StateManager, catalog *inventory.Catalog, bookings *BookingService, users *UserService, cfg config.WizardConfig, logger *zerolog.Logger) *WizardService {
	return &WizardService{
		states:   states,
		catalog:  catalog,
		bookings: bookings,
		users:    users,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartSearch begins a new wizard run. An unknown city is rejected
// outright; there is no fallback to a default city.
func (s *WizardService) StartSearch(ctx context.Context, userID int64, city, vehicleType, mode string, startAt time.Time) (*models.WizardState, error) {
	if s.cfg.RateLimitRequests > 0 {
		allowed, err := s.states.CheckRateLimit(ctx, userID, s.cfg.RateLimitRequests, s.cfg.RateLimitWindow)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	if !models.IsValidVehicle(vehicleType) {
		return nil, ErrInvalidVehicle
	}
	if mode != models.ModeNow && mode != models.ModeReserve {
		return nil, ErrInvalidMode
	}

	cityName, ok := s.catalog.CityName(city)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}

	scheduled := mode == models.ModeReserve
	if scheduled {
		if !startAt.After(time.Now()) {
			return nil, ErrPastStart
		}
	} else {
		startAt = time.Now()
	}

	revision := int64(1)
	if prev, err := s.states.GetUserState(ctx, userID); err == nil && prev != nil {
		revision = prev.Revision + 1
	}

	state := &models.WizardState{
		UserID:   userID,
		Step:     models.StepLoading,
		Mode:     mode,
		Revision: revision,
	}
	state.Set("city", cityName)
	state.Set("vehicle_type", vehicleType)
	state.Set("scheduled", scheduled)
	state.Set("start_at", startAt.Format(time.RFC3339))

	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	metrics.IncWizardStep(models.StepLoading)

	time.AfterFunc(s.cfg.SearchDelay, func() {
		s.finishSearch(context.Background(), userID, revision)
	})

	return state, nil
}

// finishSearch completes the simulated fetch. A revision mismatch means
// the user moved on while the fetch was running; the result is dropped.
func (s *WizardService) finishSearch(ctx context.Context, userID, revision int64) {
	state, err := s.states.GetUserState(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("finish search: state load failed")
		return
	}
	if state == nil || state.Revision != revision || state.Step != models.StepLoading {
		return
	}

	state.Step = models.StepSpots
	if err := s.states.SetUserState(ctx, state); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("finish search: state save failed")
		return
	}
	metrics.IncWizardStep(models.StepSpots)
}

func (s *WizardService) GetState(ctx context.Context, userID int64) (*models.WizardState, error) {
	return s.states.GetUserState(ctx, userID)
}

// Facilities lists the facilities of the searched city that still have
// spots for the selected vehicle type.
func (s *WizardService) Facilities(ctx context.Context, userID int64) ([]models.Facility, error) {
	state, err := s.stateAt(ctx, userID, models.StepSpots, models.StepOptions, models.StepPayment)
	if err != nil {
		return nil, err
	}
	return s.catalog.FacilitiesForCity(state.GetString("city"), state.GetString("vehicle_type")), nil
}

// SelectFacility picks a facility from the spots list and advances to
// the options step.
func (s *WizardService) SelectFacility(ctx context.Context, userID, facilityID int64) (*models.WizardState, error) {
	state, err := s.stateAt(ctx, userID, models.StepSpots)
	if err != nil {
		return nil, err
	}

	facility, ok := s.catalog.FacilityByID(facilityID)
	if !ok || !s.facilityInCity(state.GetString("city"), facilityID) {
		return nil, ErrFacilityUnknown
	}
	if !facility.HasSpots(state.GetString("vehicle_type")) {
		return nil, database.ErrNotAvailable
	}

	state.Set("facility_id", facilityID)
	delete(state.TempData, "option_id")
	delete(state.TempData, "duration_hours")
	state.Step = models.StepOptions
	state.Revision++

	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	metrics.IncWizardStep(models.StepOptions)
	return state, nil
}

// ChooseOption selects a parking tier and stay duration at the options
// step. Duration is bounded by config.
func (s *WizardService) ChooseOption(ctx context.Context, userID int64, optionID string, hours int64) (*models.WizardState, error) {
	state, err := s.stateAt(ctx, userID, models.StepOptions)
	if err != nil {
		return nil, err
	}

	facility, err := s.stateFacility(state)
	if err != nil {
		return nil, err
	}

	option, ok := facility.OptionByID(optionID)
	if !ok {
		return nil, ErrOptionUnknown
	}

	vehicleType := state.GetString("vehicle_type")
	if option.Spots(vehicleType) <= 0 {
		return nil, database.ErrNotAvailable
	}
	if hours < 1 || hours > s.cfg.MaxDurationHours {
		return nil, ErrDurationRange
	}

	state.Set("option_id", optionID)
	state.Set("duration_hours", hours)
	state.Revision++

	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Quote prices the current selection. The wizard shows this live at the
// options step; the payment step freezes it.
func (s *WizardService) Quote(ctx context.Context, userID int64) (pricing.Quote, error) {
	state, err := s.stateAt(ctx, userID, models.StepOptions, models.StepPayment)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.quoteFromState(state)
}

func (s *WizardService) quoteFromState(state *models.WizardState) (pricing.Quote, error) {
	optionID := state.GetString("option_id")
	hours := state.GetInt64("duration_hours")
	if optionID == "" || hours == 0 {
		return pricing.Quote{}, ErrInvalidStep
	}

	facility, err := s.stateFacility(state)
	if err != nil {
		return pricing.Quote{}, err
	}
	option, ok := facility.OptionByID(optionID)
	if !ok {
		return pricing.Quote{}, ErrOptionUnknown
	}

	vehicleType := state.GetString("vehicle_type")
	return pricing.Calculate(option.Rate(vehicleType), hours, vehicleType, state.Mode)
}

// ProceedToPayment freezes the quote and moves to the payment step.
// Requires a signed-in user and a vehicle number.
func (s *WizardService) ProceedToPayment(ctx context.Context, userID int64, vehicleNumber string) (*models.WizardState, error) {
	state, err := s.stateAt(ctx, userID, models.StepOptions)
	if err != nil {
		return nil, err
	}

	signedIn, err := s.users.IsSignedIn(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !signedIn {
		return nil, ErrSignInRequired
	}

	vehicleNumber = strings.TrimSpace(vehicleNumber)
	if vehicleNumber == "" {
		return nil, ErrVehicleNumberRequired
	}

	quote, err := s.quoteFromState(state)
	if err != nil {
		return nil, err
	}

	state.Set("vehicle_number", vehicleNumber)
	state.Set("base_cents", quote.BaseCents)
	state.Set("discount_cents", quote.DiscountCents)
	state.Set("surcharge_cents", quote.SurchargeCents)
	state.Set("total_cents", quote.TotalCents)
	state.Step = models.StepPayment
	state.Revision++

	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	metrics.IncWizardStep(models.StepPayment)
	return state, nil
}

// Confirm finalizes the booking with the price frozen at the payment
// step and advances to confirmation.
func (s *WizardService) Confirm(ctx context.Context, userID int64) (*models.Booking, error) {
	state, err := s.stateAt(ctx, userID, models.StepPayment)
	if err != nil {
		return nil, err
	}

	facility, err := s.stateFacility(state)
	if err != nil {
		return nil, err
	}
	option, ok := facility.OptionByID(state.GetString("option_id"))
	if !ok {
		return nil, ErrOptionUnknown
	}

	booking := &models.Booking{
		OrderID:         "PW-" + strings.ToUpper(uuid.New().String()[:8]),
		UserID:          userID,
		FacilityID:      facility.ID,
		FacilityName:    facility.Name,
		FacilityAddress: facility.Address,
		OptionName:      option.Name,
		VehicleType:     state.GetString("vehicle_type"),
		VehicleNumber:   state.GetString("vehicle_number"),
		Scheduled:       state.GetBool("scheduled"),
		StartAt:         state.GetTime("start_at"),
		DurationHours:   state.GetInt64("duration_hours"),
		BaseCents:       state.GetInt64("base_cents"),
		DiscountCents:   state.GetInt64("discount_cents"),
		SurchargeCents:  state.GetInt64("surcharge_cents"),
		TotalCents:      state.GetInt64("total_cents"),
		Status:          models.StatusUpcoming,
		Features:        facility.EffectiveFeatures(option),
	}

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	state.Set("order_id", booking.OrderID)
	state.Step = models.StepConfirmation
	state.Revision++
	if err := s.states.SetUserState(ctx, state); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("confirm: state save failed")
	}
	metrics.IncWizardStep(models.StepConfirmation)

	return booking, nil
}

// Back steps the wizard backwards. From confirmation it resets the run
// entirely; from loading it cancels the in-flight fetch.
func (s *WizardService) Back(ctx context.Context, userID int64) (*models.WizardState, error) {
	state, err := s.states.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveWizard
	}

	switch state.Step {
	case models.StepLoading, models.StepSpots:
		state.Step = models.StepSearch
	case models.StepOptions:
		delete(state.TempData, "option_id")
		delete(state.TempData, "duration_hours")
		state.Step = models.StepSpots
	case models.StepPayment:
		delete(state.TempData, "vehicle_number")
		delete(state.TempData, "base_cents")
		delete(state.TempData, "discount_cents")
		delete(state.TempData, "surcharge_cents")
		delete(state.TempData, "total_cents")
		state.Step = models.StepOptions
	case models.StepConfirmation:
		if err := s.states.ClearUserState(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, ErrInvalidStep
	}

	state.Revision++
	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SwitchMode flips between instant and scheduled booking. Past the
// spots step this discards the selection, so it requires force.
func (s *WizardService) SwitchMode(ctx context.Context, userID int64, mode string, startAt time.Time, force bool) (*models.WizardState, error) {
	if mode != models.ModeNow && mode != models.ModeReserve {
		return nil, ErrInvalidMode
	}

	state, err := s.states.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveWizard
	}
	if state.Mode == mode {
		return state, nil
	}

	hasSelection := state.GetInt64("facility_id") != 0
	if hasSelection && !force {
		return nil, ErrModeSwitchNeedsReset
	}

	scheduled := mode == models.ModeReserve
	if scheduled {
		if !startAt.After(time.Now()) {
			return nil, ErrPastStart
		}
	} else {
		startAt = time.Now()
	}

	delete(state.TempData, "facility_id")
	delete(state.TempData, "option_id")
	delete(state.TempData, "duration_hours")
	delete(state.TempData, "vehicle_number")
	delete(state.TempData, "base_cents")
	delete(state.TempData, "discount_cents")
	delete(state.TempData, "surcharge_cents")
	delete(state.TempData, "total_cents")
	state.Mode = mode
	state.Set("scheduled", scheduled)
	state.Set("start_at", startAt.Format(time.RFC3339))
	state.Step = models.StepSearch
	state.Revision++

	if err := s.states.SetUserState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Reset abandons the wizard run.
func (s *WizardService) Reset(ctx context.Context, userID int64) error {
	return s.states.ClearUserState(ctx, userID)
}

func (s *WizardService) stateAt(ctx context.Context, userID int64, steps ...string) (*models.WizardState, error) {
	state, err := s.states.GetUserState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveWizard
	}
	for _, step := range steps {
		if state.Step == step {
			return state, nil
		}
	}
	return nil, ErrInvalidStep
}

func (s *WizardService) facilityInCity(city string, facilityID int64) bool {
	for _, f := range s.catalog.FacilitiesForCity(city, "") {
		if f.ID == facilityID {
			return true
		}
	}
	return false
}

func (s *WizardService) stateFacility(state *models.WizardState) (models.Facility, error) {
	facility, ok := s.catalog.FacilityByID(state.GetInt64("facility_id"))
	if !ok {
		return models.Facility{}, ErrFacilityUnknown
	}
	return facility, nil
}
