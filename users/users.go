package users

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents the role the remote API grants to an authenticated principal
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Institute staff managing programmes, planning and students
	RoleStudent RoleType = "student" // Enrolled student with access to planning and notes
)

// ParseRole converts a raw role string into a RoleType
func ParseRole(raw string) (RoleType, error) {
	switch RoleType(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

func (r RoleType) String() string {
	return string(r)
}

// User mirrors the server's view of the authenticated principal.
type User struct {
	ID           string   `json:"id"`                  // Unique identifier assigned by the API
	Name         string   `json:"name"`                // Display name
	Email        string   `json:"email"`               // Login email
	Role         RoleType `json:"role"`                // admin or student
	PasswordHash string   `json:"-"`                   // Only populated by fakes, never serialized
	Phone        string   `json:"phone,omitempty"`     // Contact number
	PhotoURL     string   `json:"photo,omitempty"`     // Profile picture served by the API
	Matricule    string   `json:"matricule,omitempty"` // Student registration number

	// Enrolment (students only)
	Filiere      string `json:"filiere,omitempty"`       // Training track (filière)
	Speciality   string `json:"speciality,omitempty"`    // Speciality within the filière
	AcademicYear string `json:"academic_year,omitempty"` // e.g. 2025-2026
	Semester     string `json:"semester,omitempty"`
	Group        string `json:"group,omitempty"`
}

// Validate checks the fields the session core relies on.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user %s has invalid role %q", u.ID, u.Role)
	}
	return nil
}

// HasRole reports whether the user holds role. A nil user holds no role.
func (u *User) HasRole(role RoleType) bool {
	return u != nil && u.Role == role
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u *User) IsStudent() bool {
	return u.HasRole(RoleStudent)
}

// DisplayName falls back to the email when no name is set
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

// Clone returns a copy so snapshots handed out by the session store cannot be mutated.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
