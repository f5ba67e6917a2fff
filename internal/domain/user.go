package domain

const RoleSeller = "SELLER"

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

func (u *User) IsSeller() bool { return u != nil && u.Role == RoleSeller }
