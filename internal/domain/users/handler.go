package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medication-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", getMeHandler(svc))
	r.Put("/me", putMeHandler(svc))
}

type notificationPrefs struct {
	Email    bool `json:"email"`
	SMS      bool `json:"sms"`
	Push     bool `json:"push"`
	Calendar bool `json:"calendar"`
}

type emergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type putMeRequest struct {
	Name                    *string            `json:"name"`
	Email                   *string            `json:"email"`
	NotificationPreferences *notificationPrefs `json:"notification_preferences"`

	Age               *int              `json:"age"`
	Weight            *float64          `json:"weight"` // kg
	Height            *float64          `json:"height"` // cm
	PhoneNumber       *string           `json:"phone_number"`
	MedicalConditions *[]string         `json:"medical_conditions"`
	Allergies         *[]string         `json:"allergies"`
	EmergencyContact  *emergencyContact `json:"emergency_contact"`
}

type userResponse struct {
	ID                      string            `json:"id"`
	Name                    string            `json:"name"`
	Email                   string            `json:"email"`
	NotificationPreferences notificationPrefs `json:"notification_preferences"`

	Age               *int             `json:"age,omitempty"`
	Weight            *float64         `json:"weight,omitempty"`
	Height            *float64         `json:"height,omitempty"`
	BMI               *float64         `json:"bmi,omitempty"`
	PhoneNumber       string           `json:"phone_number,omitempty"`
	MedicalConditions []string         `json:"medical_conditions"`
	Allergies         []string         `json:"allergies"`
	EmergencyContact  emergencyContact `json:"emergency_contact"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// getMeHandler godoc
// @Summary Perfil del usuario autenticado
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {object} userResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /me [get]
func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// putMeHandler godoc
// @Summary Crear o actualizar perfil
// @Description Upsert del perfil, datos de salud y preferencias de notificación. name es obligatorio al crear. bmi se calcula con weight y height.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body putMeRequest true "Perfil"
// @Success 200 {object} userResponse
// @Success 201 {object} userResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /me [put]
func putMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req putMeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpsertInput{
			Name:        req.Name,
			Email:       req.Email,
			Age:         req.Age,
			WeightKg:    req.Weight,
			HeightCm:    req.Height,
			PhoneNumber: req.PhoneNumber,
			Conditions:  req.MedicalConditions,
			Allergies:   req.Allergies,
		}
		if in.Name == nil && claims.Name != "" {
			in.Name = &claims.Name
		}
		if in.Email == nil && claims.Email != "" {
			in.Email = &claims.Email
		}
		if p := req.NotificationPreferences; p != nil {
			in.Notifications = &NotificationPreferences{
				Email:    p.Email,
				SMS:      p.SMS,
				Push:     p.Push,
				Calendar: p.Calendar,
			}
		}
		if c := req.EmergencyContact; c != nil {
			in.EmergencyContact = &EmergencyContact{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship}
		}

		u, created, err := svc.Upsert(r.Context(), claims.UserID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	h := u.Health
	out := userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		NotificationPreferences: notificationPrefs{
			Email:    u.Notifications.Email,
			SMS:      u.Notifications.SMS,
			Push:     u.Notifications.Push,
			Calendar: u.Notifications.Calendar,
		},
		Age:               h.Age,
		Weight:            h.WeightKg,
		Height:            h.HeightCm,
		PhoneNumber:       h.PhoneNumber,
		MedicalConditions: nonNil(h.Conditions),
		Allergies:         nonNil(h.Allergies),
		EmergencyContact: emergencyContact{
			Name:         h.EmergencyContact.Name,
			Phone:        h.EmergencyContact.Phone,
			Relationship: h.EmergencyContact.Relationship,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if bmi, ok := h.BMI(); ok {
		out.BMI = &bmi
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
