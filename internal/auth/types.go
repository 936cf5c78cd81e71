package auth

import (
	"errors"
	"fmt"
	"time"
)

// UserType is the account tier of a marketplace user.
type UserType string

const (
	// UserTypeRegular is the default tier assigned at registration.
	UserTypeRegular UserType = "regular"

	// UserTypePremium is a paying renter or lister. Premium sessions live longer.
	UserTypePremium UserType = "premium"

	// UserTypeAdmin is a marketplace operator account.
	UserTypeAdmin UserType = "admin"
)

// IsValid reports whether t is a known tier.
func (t UserType) IsValid() bool {
	_, ok := userFactories[t]
	return ok
}

// User is a marketplace account.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Surname          string    `json:"surname"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"` // never serialised
	PhoneNumber      string    `json:"phoneNumber,omitempty"`
	Region           string    `json:"region,omitempty"`
	Town             string    `json:"town,omitempty"`
	Street           string    `json:"street,omitempty"`
	HouseNumber      int       `json:"houseNumber,omitempty"`
	ApartmentNumber  int       `json:"apartmentNumber,omitempty"`
	FloorNumber      int       `json:"floorNumber,omitempty"`
	UserType         UserType  `json:"userType"`
	IsVerified       bool      `json:"isVerified"`
	RegistrationDate time.Time `json:"registrationDate"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the user-editable profile fields.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name            *string `json:"name"`
	Surname         *string `json:"surname"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Region          *string `json:"region"`
	Town            *string `json:"town"`
	Street          *string `json:"street"`
	HouseNumber     *int    `json:"houseNumber"`
	ApartmentNumber *int    `json:"apartmentNumber"`
	FloorNumber     *int    `json:"floorNumber"`
}

// apply copies the set fields of p onto u.
func (p ProfileUpdate) apply(u *User) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&u.Name, p.Name)
	setString(&u.Surname, p.Surname)
	setString(&u.Email, p.Email)
	setString(&u.PhoneNumber, p.PhoneNumber)
	setString(&u.Region, p.Region)
	setString(&u.Town, p.Town)
	setString(&u.Street, p.Street)
	setInt(&u.HouseNumber, p.HouseNumber)
	setInt(&u.ApartmentNumber, p.ApartmentNumber)
	setInt(&u.FloorNumber, p.FloorNumber)
}

// userFactories builds the initial account for each tier.
var userFactories = map[UserType]func(name, surname, email string) *User{
	UserTypeRegular: func(name, surname, email string) *User {
		return &User{Name: name, Surname: surname, Email: email, UserType: UserTypeRegular}
	},
	UserTypePremium: func(name, surname, email string) *User {
		return &User{Name: name, Surname: surname, Email: email, UserType: UserTypePremium, IsVerified: true}
	},
	UserTypeAdmin: func(name, surname, email string) *User {
		return &User{Name: name, Surname: surname, Email: email, UserType: UserTypeAdmin, IsVerified: true}
	},
}

// NewUser creates an unsaved account of the given tier.
// An empty tier selects UserTypeRegular.
func NewUser(t UserType, name, surname, email string) (*User, error) {
	if t == "" {
		t = UserTypeRegular
	}
	factory, ok := userFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user type %q", ErrInvalidInput, t)
	}
	return factory(name, surname, email), nil
}

// Sentinel errors for auth operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTokenInvalid       = errors.New("invalid token")
)
