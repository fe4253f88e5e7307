package calendar

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"medication-tracker/internal/domain/medications"
	"medication-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/calendar/export", exportHandler(svc))
}

// exportHandler godoc
// @Summary Exportar tomas como iCalendar
// @Description Próximas tomas de las medicaciones activas, con avisos 15 y 5 minutos antes.
// @Tags calendar
// @Produce text/calendar
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {string} string "archivo .ics"
// @Failure 400 {string} string "no upcoming doses to export"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /calendar/export [get]
func exportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		exp, err := svc.Export(r.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoEvents), errors.Is(err, medications.ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, medications.ErrUserNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(exp.Body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(exp.Body)
	}
}
