package auth

import "time"

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"passwordHash"`
	Role         Role         `json:"role"`
	Permissions  []Permission `json:"permissions"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// UserView is what leaves the service boundary.
type UserView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Granted     []Permission `json:"granted"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func (u User) View() UserView {
	granted := u.Permissions
	if granted == nil {
		granted = []Permission{}
	}
	return UserView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Granted:     granted,
		Permissions: EffectivePermissions(u.Role, u.Permissions),
		CreatedAt:   u.CreatedAt,
	}
}

func (u User) Actor() Actor {
	return NewActor(u.ID, u.Name, u.Role, u.Permissions)
}

type NewUserInput struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
