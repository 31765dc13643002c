package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parkwise/internal/database"
	"parkwise/internal/models"
	"parkwise/internal/service"
)

const userIDHeader = "X-User-ID"

func userIDFrom(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("missing %s header", userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s header", userIDHeader)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownCity),
		errors.Is(err, service.ErrInvalidVehicle),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrPastStart),
		errors.Is(err, service.ErrDurationRange),
		errors.Is(err, service.ErrVehicleNumberRequired),
		errors.Is(err, service.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoActiveWizard),
		errors.Is(err, service.ErrFacilityUnknown),
		errors.Is(err, service.ErrOptionUnknown),
		errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStep),
		errors.Is(err, service.ErrModeSwitchNeedsReset),
		errors.Is(err, service.ErrNotCancellable),
		errors.Is(err, database.ErrNotAvailable):
		return http.StatusConflict
	case errors.Is(err, service.ErrSignInRequired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, code, msg)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": s.catalog.Cities()})
}

func (s *HTTPServer) handleWizardSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		City        string `json:"city"`
		VehicleType string `json:"vehicle_type"`
		Mode        string `json:"mode"`
		StartAt     string `json:"start_at,omitempty"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var startAt time.Time
	if body.StartAt != "" {
		startAt, err = time.Parse(time.RFC3339, body.StartAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_at; expected RFC3339")
			return
		}
	}

	state, err := s.wizard.StartSearch(r.Context(), userID, body.City, body.VehicleType, body.Mode, startAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.wizard.GetState(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if state == nil {
		writeServiceError(w, service.ErrNoActiveWizard)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardFacilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := s.wizard.Facilities(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
}

func (s *HTTPServer) handleWizardSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		FacilityID int64 `json:"facility_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.wizard.SelectFacility(r.Context(), userID, body.FacilityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardOption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		OptionID string `json:"option_id"`
		Hours    int64  `json:"hours"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.wizard.ChooseOption(r.Context(), userID, body.OptionID, body.Hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := s.wizard.Quote(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleWizardPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		VehicleNumber string `json:"vehicle_number"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.wizard.ProceedToPayment(r.Context(), userID, body.VehicleNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.wizard.Confirm(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.wizard.Back(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if state == nil {
		// Back from confirmation closes the wizard.
		writeJSON(w, http.StatusOK, map[string]any{"closed": true})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Mode    string `json:"mode"`
		StartAt string `json:"start_at,omitempty"`
		Force   bool   `json:"force,omitempty"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var startAt time.Time
	if body.StartAt != "" {
		startAt, err = time.Parse(time.RFC3339, body.StartAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_at; expected RFC3339")
			return
		}
	}

	state, err := s.wizard.SwitchMode(r.Context(), userID, body.Mode, startAt, body.Force)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleWizardReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.wizard.Reset(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	list, err := s.bookings.GetUserBookings(r.Context(), userID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

func (s *HTTPServer) handleBookingCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		BookingID int64 `json:"booking_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.CancelBooking(r.Context(), userID, body.BookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleBookingsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		list    []*models.Booking
		fromRaw = strings.TrimSpace(r.URL.Query().Get("from"))
		toRaw   = strings.TrimSpace(r.URL.Query().Get("to"))
	)
	if fromRaw != "" || toRaw != "" {
		from, perr := time.Parse(time.RFC3339, fromRaw)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid from; expected RFC3339")
			return
		}
		to, perr := time.Parse(time.RFC3339, toRaw)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid to; expected RFC3339")
			return
		}
		list, err = s.bookings.GetUserBookingsInRange(r.Context(), userID, from, to)
	} else {
		list, err = s.bookings.GetUserBookings(r.Context(), userID, "")
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := s.exporter.WriteBookings(w, list); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("export failed")
	}
}

func (s *HTTPServer) handleSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		list, err := s.saved.List(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"saved": list})

	case http.MethodPost:
		var body struct {
			FacilityID int64 `json:"facility_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.saved.Save(r.Context(), userID, body.FacilityID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"saved": true})

	case http.MethodDelete:
		raw := strings.TrimSpace(r.URL.Query().Get("facility_id"))
		facilityID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || facilityID <= 0 {
			writeError(w, http.StatusBadRequest, "facility_id is required")
			return
		}
		if err := s.saved.Unsave(r.Context(), userID, facilityID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"saved": false})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleFacilityRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		FacilityID int64   `json:"facility_id"`
		Stars      float64 `json:"stars"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.saved.Rate(r.Context(), userID, body.FacilityID, body.Stars); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rated": true})
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.SignIn(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.bookings.SeedSampleHistory(r.Context(), userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("sample history seed failed")
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.users.SignOut(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signed_in": false})
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.users.GetProfile(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPut:
		var body struct {
			Name      string `json:"name"`
			Phone     string `json:"phone"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, err := s.users.UpdateProfile(r.Context(), userID, body.Name, body.Phone, body.Email, body.AvatarURL)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
