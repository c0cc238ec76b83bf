package record

// User - сотрудник, работающий со складом
type User struct {
	Base
	Username string `json:"username" validate:"required"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin operator viewer"`
}

func (u *User) Collection() Collection {
	return Users
}

func (u *User) Key() string {
	return u.ID
}

func (u *User) MergeWith(previous Record) Record {
	if prev, ok := previous.(*User); ok && prev != nil {
		u.mergeBase(&prev.Base)
	}
	return u
}
