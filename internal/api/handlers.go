package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studiobook/internal/export"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
	"studiobook/internal/rules"
	"studiobook/internal/store"
)

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"bookings": s.store.List(r.Context())})
	case http.MethodPost:
		s.createBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type createBookingRequest struct {
	ClientName    string  `json:"client_name"`
	PhoneNumber   string  `json:"phone_number"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
	Type          string  `json:"type"`
	Notes         string  `json:"notes"`
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := s.store.Create(r.Context(), models.Booking{
		ClientName:    strings.TrimSpace(body.ClientName),
		PhoneNumber:   strings.TrimSpace(body.PhoneNumber),
		Date:          strings.TrimSpace(body.Date),
		StartTime:     strings.TrimSpace(body.StartTime),
		DurationHours: body.DurationHours,
		Type:          strings.TrimSpace(body.Type),
		Notes:         body.Notes,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking")
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		booking, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case action == "cancel" && r.Method == http.MethodPost:
		booking, err := s.store.Cancel(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case action == "complete" && r.Method == http.MethodPost:
		s.completeBooking(w, r, id)
	case action == "invoice" && r.Method == http.MethodPost:
		s.invoiceBooking(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) completeBooking(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		ActualEndTime string `json:"actual_end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Propose the scheduled end when the caller sent none; any confirmed
	// value is stored as given.
	if body.ActualEndTime == "" {
		booking, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if end, err := rules.DefaultEndTime(booking.StartTime, booking.DurationHours); err == nil {
			body.ActualEndTime = end
		}
	}

	booking, err := s.store.Complete(r.Context(), id, body.ActualEndTime)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) invoiceBooking(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		RatePerHour float64 `json:"rate_per_hour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RatePerHour <= 0 {
		writeError(w, http.StatusBadRequest, "rate_per_hour must be positive")
		return
	}

	booking, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	details := export.InvoiceFor(booking, body.RatePerHour)
	booking, err = s.store.UpdateInvoice(r.Context(), id, details)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	filePath, err := export.InvoiceToExcel(s.exportDir, booking, details)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", id).Msg("invoice document generation failed")
		writeError(w, http.StatusInternalServerError, "invoice document generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"booking": booking, "file": filePath})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("stats")
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Stats(r.Context(), from, to))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": s.store.Daily(r.Context(), from, to)})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("today")
	date := queryDate(r, "date")
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "bookings": s.store.Today(r.Context(), date)})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("upcoming")
	date := queryDate(r, "date")
	upcoming := s.store.Upcoming(r.Context(), date)

	limit := models.DefaultUpcomingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "bookings": upcoming})
}

func (s *Server) handleAIFill(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("ai_fill")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "ai is not configured")
		return
	}

	var body struct {
		Text        string `json:"text"`
		AudioBase64 string `json:"audio_base64"`
		MimeType    string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	today := time.Now().Format(models.DateLayout)
	var proposal *models.ProposedBooking
	var err error
	switch {
	case body.Text != "":
		proposal, err = s.ai.ExtractBooking(r.Context(), body.Text, today)
	case body.AudioBase64 != "":
		var audio []byte
		audio, err = base64.StdEncoding.DecodeString(body.AudioBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid audio payload")
			return
		}
		proposal, err = s.ai.ExtractBookingFromAudio(r.Context(), audio, body.MimeType, today)
	default:
		writeError(w, http.StatusBadRequest, "text or audio_base64 is required")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("booking extraction failed")
		writeError(w, http.StatusUnprocessableEntity, "could not understand the request")
		return
	}

	// The proposal only fills the form; nothing is created yet. Flag an
	// overlap now so the caller can warn before submitting.
	conflicts := rules.HasOverlap(proposal.Date, proposal.StartTime, proposal.DurationHours, s.store.List(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"proposal": proposal, "conflicts": conflicts})
}

func (s *Server) handleAIChat(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("ai_chat")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "ai is not configured")
		return
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.ai.Chat(r.Context(), body.Question, s.store.List(r.Context()))
	if err != nil {
		s.logger.Warn().Err(err).Msg("assistant chat failed")
		writeError(w, http.StatusUnprocessableEntity, "could not answer the question")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_csv")
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	var filtered []models.Booking
	for _, b := range s.store.List(r.Context()) {
		if b.Date >= from && b.Date <= to {
			filtered = append(filtered, b)
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	if err := export.WriteCSV(w, filtered); err != nil {
		s.logger.Error().Err(err).Msg("csv export failed")
	}
}

func (s *Server) handleExportSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_schedule")
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	filePath, err := export.ScheduleToExcel(s.exportDir, from, to, s.store.Daily(r.Context(), from, to))
	if err != nil {
		s.logger.Error().Err(err).Msg("schedule export failed")
		writeError(w, http.StatusInternalServerError, "schedule export failed")
		return
	}
	http.ServeFile(w, r, filePath)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, store.ErrOverlap):
		writeError(w, http.StatusConflict, "the requested time overlaps an existing session")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrMissingField), errors.Is(err, store.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func dateRange(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return "", "", false
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return "", "", false
		}
	}
	return from, to, true
}

func queryDate(r *http.Request, param string) string {
	if raw := strings.TrimSpace(r.URL.Query().Get(param)); raw != "" {
		if _, err := time.Parse(models.DateLayout, raw); err == nil {
			return raw
		}
	}
	return time.Now().Format(models.DateLayout)
}
