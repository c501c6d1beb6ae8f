package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID             string `db:"id"`
	Email          string `db:"email"`
	HashedPassword string `db:"hashed_password"`
	FirstName      string `db:"first_name"`
	LastName       string `db:"last_name"`
	Role           Role   `db:"role"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
