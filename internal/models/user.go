package models

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// User is a registered field worker or resident. Location fields are free text.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	District  string    `json:"district"`
	Village   string    `json:"village"`
	Taluk     string    `json:"taluk"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Age       *int      `json:"age"`
	Gender    string    `json:"gender"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUser() *User {
	return &User{IsActive: true}
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

func (u *User) Touch(now time.Time, created bool) {
	if created {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// Normalize derives the display name from first and last name when it is empty
func (u *User) Normalize() {
	if u.Name == "" {
		u.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
}

func (u *User) Validate() []string {
	var errs []string
	if blank(u.Name) {
		errs = append(errs, "Name is required")
	}
	if blank(u.District) {
		errs = append(errs, "District is required")
	}
	if blank(u.Village) {
		errs = append(errs, "Village is required")
	}
	if blank(u.Taluk) {
		errs = append(errs, "Taluk is required")
	}
	if u.Email != "" && !emailRegex.MatchString(u.Email) {
		errs = append(errs, "Invalid email format")
	}
	if u.Phone != "" && !phoneRegex.MatchString(u.Phone) {
		errs = append(errs, "Invalid phone number format")
	}
	return errs
}
