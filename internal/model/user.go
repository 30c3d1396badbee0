package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"userapi/internal/orm"
)

// User is an account record. Password holds a bcrypt hash and is never serialized.
type User struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Email           string     `json:"email" yaml:"email"`
	Password        string     `json:"-" yaml:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" yaml:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" yaml:"updated_at"`
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

const (
	UsersTable = "users"

	minPasswordLen = 8
)

// UserSchema maps User onto the users table (or the users/ key prefix).
// hashCost is the bcrypt cost applied to assigned passwords; values outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func UserSchema(hashCost int) orm.Schema[User, string] {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return orm.Schema[User, string]{
		Name:          UsersTable,
		PrimaryKey:    "id",
		Columns:       []string{"name", "email", "password", "email_verified_at", "created_at", "updated_at"},
		Fillable:      []string{"name", "email", "password"},
		UpdatedColumn: "updated_at",
		NewID:         uuid.NewString,
		GetID:         func(u *User) string { return u.ID },
		SetID:         func(u *User, id string) { u.ID = id },
		Fill: func(u *User, f orm.Fields) error {
			return fillUser(u, f, hashCost)
		},
		Values: func(u *User) []any {
			return []any{u.Name, u.Email, u.Password, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt}
		},
		Scan: func(s orm.Scanner) (*User, error) {
			var u User
			if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return nil, err
			}
			return &u, nil
		},
		Touch: func(u *User, now time.Time, creating bool) {
			if creating {
				u.CreatedAt = now
			}
			u.UpdatedAt = now
		},
		Validate: validateUser,
	}
}

func fillUser(u *User, f orm.Fields, hashCost int) error {
	if v, ok := f["name"]; ok {
		name, err := stringField("name", v)
		if err != nil {
			return err
		}
		u.Name = strings.TrimSpace(name)
	}
	if v, ok := f["email"]; ok {
		email, err := stringField("email", v)
		if err != nil {
			return err
		}
		addr, err := mail.ParseAddress(strings.TrimSpace(email))
		if err != nil || addr.Name != "" {
			return &orm.ValidationError{Field: "email", Reason: "must be a valid email address"}
		}
		u.Email = strings.ToLower(addr.Address)
	}
	if v, ok := f["password"]; ok {
		plain, err := stringField("password", v)
		if err != nil {
			return err
		}
		if len(plain) < minPasswordLen {
			return &orm.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
		if err != nil {
			return &orm.ValidationError{Field: "password", Reason: err.Error()}
		}
		u.Password = string(hash)
	}
	return nil
}

func validateUser(u *User) error {
	switch {
	case u.Name == "":
		return &orm.ValidationError{Field: "name", Reason: "is required"}
	case u.Email == "":
		return &orm.ValidationError{Field: "email", Reason: "is required"}
	case u.Password == "":
		return &orm.ValidationError{Field: "password", Reason: "is required"}
	}
	return nil
}

func stringField(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &orm.ValidationError{Field: name, Reason: "must be a string"}
	}
	return s, nil
}
