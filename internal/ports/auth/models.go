package auth

// Claims representa la identidad extraída del token (o del header de dev).
type Claims struct {
	UserID string
	Email  string
	Name   string
}
