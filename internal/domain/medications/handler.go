package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medication-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/tracker", func(tr chi.Router) {
		tr.Get("/schedule", scheduleHandler(svc))
		tr.Get("/today", todayHandler(svc))
		tr.Get("/due-now", dueNowHandler(svc))
		tr.Get("/due-soon", dueSoonHandler(svc))
		tr.Get("/stats", statsHandler(svc))

		tr.Post("/medications", addMedicationHandler(svc))
		tr.Put("/medications/{medicationID}", updateMedicationHandler(svc))
		tr.Delete("/medications/{medicationID}", deleteMedicationHandler(svc))
		tr.Post("/medications/{medicationID}/taken", markTakenHandler(svc))
		tr.Post("/medications/{medicationID}/dismiss", dismissHandler(svc))
	})

	r.Post("/prescriptions/import", importPrescriptionHandler(svc))
}

type addMedicationRequest struct {
	MedicineID string   `json:"medicine_id"`
	Dosage     string   `json:"dosage"`
	Frequency  string   `json:"frequency"`
	Times      []string `json:"times"`
	StartDate  string   `json:"start_date"` // YYYY-MM-DD opcional (default hoy)
	EndDate    string   `json:"end_date"`   // YYYY-MM-DD opcional
	Notes      string   `json:"notes"`
}

// updateMedicationRequest: punteros para distinguir "no enviado".
// end_date: "" limpia la fecha de fin.
type updateMedicationRequest struct {
	Dosage    *string  `json:"dosage"`
	Frequency *string  `json:"frequency"`
	Times     []string `json:"times"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
	Notes     *string  `json:"notes"`
	IsActive  *bool    `json:"is_active"`
}

type dismissRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM
}

type prescriptionMedicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Timing    string `json:"timing"`
	Duration  string `json:"duration"`
}

type prescriptionPayload struct {
	Notes     string                 `json:"notes"`
	Medicines []prescriptionMedicine `json:"medicines"`
}

// importPrescriptionRequest: receta ya parseada por el lector.
type importPrescriptionRequest struct {
	RawText      string               `json:"raw_text"`
	Prescription *prescriptionPayload `json:"prescription"`
}

type importPrescriptionResponse struct {
	ImportedCount int                  `json:"imported_count"`
	Medications   []medicationResponse `json:"medications"`
}

type dismissalResponse struct {
	Date        Date      `json:"date"`
	Time        string    `json:"time"`
	DismissedAt time.Time `json:"dismissed_at"`
}

type medicationResponse struct {
	ID                 string              `json:"id"`
	MedicineID         string              `json:"medicine_id"`
	MedicineName       string              `json:"medicine_name"`
	Dosage             string              `json:"dosage"`
	Frequency          Frequency           `json:"frequency"`
	Times              []string            `json:"times"`
	StartDate          Date                `json:"start_date"`
	EndDate            *Date               `json:"end_date,omitempty"`
	IsActive           bool                `json:"is_active"`
	LastTaken          *time.Time          `json:"last_taken,omitempty"`
	NextDose           *time.Time          `json:"next_dose,omitempty"`
	DismissedReminders []dismissalResponse `json:"dismissed_reminders"`
	Notes              string              `json:"notes"`
	Source             Source              `json:"source"`
	RawText            string              `json:"raw_text,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type dueResponse struct {
	Medication   medicationResponse `json:"medication"`
	MedicineName string             `json:"medicine_name"`
	DueTime      time.Time          `json:"due_time"`
	TimeStr      string             `json:"time_str"`
	Status       DueStatus          `json:"status"`
	MinutesUntil int                `json:"minutes_until"`
	Key          string             `json:"occurrence_key"`
}

type statsResponse struct {
	Adherence        int `json:"adherence"`
	TotalMedications int `json:"total_medications"`
	TodayDueCount    int `json:"today_due_count"`
}

// scheduleHandler godoc
// @Summary Medicaciones vigentes
// @Description Medicaciones activas cuya ventana start/end incluye hoy. No resuelve horarios.
// @Tags tracker
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /tracker/schedule [get]
func scheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		items, err := svc.Schedule(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toMedicationResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// todayHandler godoc
// @Summary Tomas pendientes de hoy
// @Description Una entrada por medicación con la toma más temprana del día no tomada ni descartada, ordenadas por due_time.
// @Tags tracker
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} dueResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /tracker/today [get]
func todayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		items, err := svc.Today(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDueResponses(items))
	}
}

func dueNowHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		items, err := svc.DueNow(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDueResponses(items))
	}
}

// dueSoonHandler godoc
// @Summary Tomas próximas
// @Description Tomas en (now, now+minutes], sin las ya tomadas ni descartadas.
// @Tags tracker
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param minutes query int false "Ventana en minutos (1-1440). Por defecto 15"
// @Success 200 {array} dueResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /tracker/due-soon [get]
func dueSoonHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		minutes := 15
		if v := r.URL.Query().Get("minutes"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1440 {
				minutes = n
			}
		}

		items, err := svc.DueSoon(r.Context(), userID, svc.now(), time.Duration(minutes)*time.Minute)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDueResponses(items))
	}
}

// statsHandler godoc
// @Summary Estadísticas de adherencia
// @Description Adherencia de los últimos 7 días (crédito por día), medicaciones activas y pendientes de hoy.
// @Tags tracker
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {object} statsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /tracker/stats [get]
func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		st, err := svc.Stats(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Adherence:        st.Adherence,
			TotalMedications: st.TotalMedications,
			TodayDueCount:    st.TodayDueCount,
		})
	}
}

// addMedicationHandler godoc
// @Summary Agregar medicación al seguimiento
// @Description Requiere una entrada de catálogo existente y al menos un horario HH:MM válido.
// @Tags tracker
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body addMedicationRequest true "Medicación"
// @Success 201 {object} medicationResponse
// @Failure 400 {string} string "invalid json / horarios inválidos / catálogo inexistente"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /tracker/medications [post]
func addMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req addMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := AddInput{
			MedicineID: req.MedicineID,
			Dosage:     req.Dosage,
			Frequency:  Frequency(strings.TrimSpace(req.Frequency)),
			Times:      req.Times,
			Notes:      req.Notes,
		}
		if strings.TrimSpace(req.StartDate) != "" {
			d, err := ParseDate(req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = &d
		}
		if strings.TrimSpace(req.EndDate) != "" {
			d, err := ParseDate(req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.EndDate = &d
		}

		t, err := svc.Add(r.Context(), userID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicationResponse(t))
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req updateMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Dosage:   req.Dosage,
			Times:    req.Times,
			Notes:    req.Notes,
			IsActive: req.IsActive,
		}
		if req.Frequency != nil {
			f := Frequency(strings.TrimSpace(*req.Frequency))
			in.Frequency = &f
		}
		if req.StartDate != nil {
			d, err := ParseDate(*req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = &d
		}
		if req.EndDate != nil {
			if strings.TrimSpace(*req.EndDate) == "" {
				in.ClearEnd = true
			} else {
				d, err := ParseDate(*req.EndDate)
				if err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
					return
				}
				in.EndDate = &d
			}
		}

		t, err := svc.Update(r.Context(), userID, chi.URLParam(r, "medicationID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(t))
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "medicationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// markTakenHandler godoc
// @Summary Marcar toma
// @Description Fija last_taken = ahora. Cubre todas las tomas del día hasta este momento.
// @Tags tracker
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID de la medicación"
// @Success 200 {object} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /tracker/medications/{medicationID}/taken [post]
func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		t, err := svc.RecordTaken(r.Context(), userID, chi.URLParam(r, "medicationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(t))
	}
}

// dismissHandler godoc
// @Summary Descartar una toma
// @Description Saltea para siempre la toma exacta (date, time). Idempotente.
// @Tags tracker
// @Accept json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param medicationID path string true "ID de la medicación"
// @Param payload body dismissRequest true "Día y hora"
// @Success 204
// @Failure 400 {string} string "date/time inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /tracker/medications/{medicationID}/dismiss [post]
func dismissHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req dismissRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
			http.Error(w, "date and time are required", http.StatusBadRequest)
			return
		}
		day, err := ParseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		if err := svc.RecordDismissal(r.Context(), userID, chi.URLParam(r, "medicationID"), day, req.Time); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// importPrescriptionHandler godoc
// @Summary Importar receta
// @Description Agrega al seguimiento los medicamentos de una receta ya leída. Los que no estén en el catálogo se dan de alta por nombre.
// @Tags tracker
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body importPrescriptionRequest true "Receta"
// @Success 201 {object} importPrescriptionResponse
// @Failure 400 {string} string "no medicines provided / no valid medicines found"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /prescriptions/import [post]
func importPrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req importPrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := ImportInput{RawText: req.RawText}
		if p := req.Prescription; p != nil {
			in.Notes = p.Notes
			for _, m := range p.Medicines {
				in.Items = append(in.Items, PrescriptionItem{
					Name:      m.Name,
					Dosage:    m.Dosage,
					Frequency: m.Frequency,
					Timing:    m.Timing,
					Duration:  m.Duration,
				})
			}
		}

		items, err := svc.Import(r.Context(), userID, in)
		if err != nil {
			writeError(w, err)
			return
		}

		out := importPrescriptionResponse{
			ImportedCount: len(items),
			Medications:   make([]medicationResponse, 0, len(items)),
		}
		for _, t := range items {
			out.Medications = append(out.Medications, toMedicationResponse(t))
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrCatalogEntryMissing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrMedicationNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toMedicationResponse(t Tracked) medicationResponse {
	dismissed := make([]dismissalResponse, 0, len(t.DismissedReminders))
	for _, d := range t.DismissedReminders {
		dismissed = append(dismissed, dismissalResponse{
			Date:        d.Date,
			Time:        d.Time,
			DismissedAt: d.DismissedAt,
		})
	}
	times := t.Times
	if times == nil {
		times = []string{}
	}
	return medicationResponse{
		ID:                 t.ID,
		MedicineID:         t.MedicineID,
		MedicineName:       t.MedicineName,
		Dosage:             t.Dosage,
		Frequency:          t.Frequency,
		Times:              times,
		StartDate:          t.StartDate,
		EndDate:            t.EndDate,
		IsActive:           t.IsActive,
		LastTaken:          t.LastTaken,
		NextDose:           t.NextDose,
		DismissedReminders: dismissed,
		Notes:              t.Notes,
		Source:             t.Source,
		RawText:            t.RawText,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toDueResponses(items []Due) []dueResponse {
	out := make([]dueResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dueResponse{
			Medication:   toMedicationResponse(Tracked{Medication: it.Medication, MedicineName: it.MedicineName}),
			MedicineName: it.MedicineName,
			DueTime:      it.DueTime,
			TimeStr:      it.TimeStr,
			Status:       it.Status,
			MinutesUntil: it.MinutesUntil,
			Key:          it.Occurrence.Key(),
		})
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
