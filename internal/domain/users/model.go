package users

import (
	"math"
	"time"
)

// NotificationPreferences: el scanner periódico sólo mira Push.
type NotificationPreferences struct {
	Email    bool
	SMS      bool
	Push     bool
	Calendar bool
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, Push: true}
}

type EmergencyContact struct {
	Name         string
	Phone        string
	Relationship string
}

// HealthProfile son datos declarados por el usuario; nada del motor de
// tomas depende de ellos.
type HealthProfile struct {
	Age         *int
	WeightKg    *float64
	HeightCm    *float64
	PhoneNumber string

	Conditions []string
	Allergies  []string

	EmergencyContact EmergencyContact
}

// BMI se deriva de peso y altura, redondeado a un decimal. ok=false si falta alguno.
func (h HealthProfile) BMI() (float64, bool) {
	if h.WeightKg == nil || h.HeightCm == nil || *h.WeightKg <= 0 || *h.HeightCm <= 0 {
		return 0, false
	}
	m := *h.HeightCm / 100
	return math.Round(*h.WeightKg/(m*m)*10) / 10, true
}

func (h HealthProfile) clone() HealthProfile {
	out := h
	if h.Age != nil {
		v := *h.Age
		out.Age = &v
	}
	if h.WeightKg != nil {
		v := *h.WeightKg
		out.WeightKg = &v
	}
	if h.HeightCm != nil {
		v := *h.HeightCm
		out.HeightCm = &v
	}
	if h.Conditions != nil {
		out.Conditions = append([]string(nil), h.Conditions...)
	}
	if h.Allergies != nil {
		out.Allergies = append([]string(nil), h.Allergies...)
	}
	return out
}

type User struct {
	ID    string
	Name  string
	Email string

	Notifications NotificationPreferences
	Health        HealthProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone no comparte slices ni punteros con u.
func (u User) Clone() User {
	u.Health = u.Health.clone()
	return u
}
