package domain

type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
	TokenContextKey   ContextKey = "token"
)

// User is the buyer identity taken from token claims. The storefront never
// loads users itself.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}
