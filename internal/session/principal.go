package session

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

const principalKey = "session_principal"

// ErrUnknownRole is returned when a profile carries a role the API does not serve.
var ErrUnknownRole = errors.New("unknown profile role")

// Principal is the signed-in user. It is either a Student or a Teacher and nothing else;
// callers branch on it with a type switch.
type Principal interface {
	UserID() uuid.UUID
	Role() string
	Account() models.Profile
	principal()
}

// Student is a signed-in learner.
type Student struct {
	Profile models.Profile
}

// Teacher is a signed-in course owner.
type Teacher struct {
	Profile models.Profile
}

func (s Student) UserID() uuid.UUID { return s.Profile.ID }

func (s Student) Role() string { return models.RoleStudent }

func (s Student) Account() models.Profile { return s.Profile }

func (Student) principal() {}

func (t Teacher) UserID() uuid.UUID { return t.Profile.ID }

func (t Teacher) Role() string { return models.RoleTeacher }

func (t Teacher) Account() models.Profile { return t.Profile }

func (Teacher) principal() {}

// FromProfile picks the variant matching the stored role.
func FromProfile(profile models.Profile) (Principal, error) {
	switch profile.Role {
	case models.RoleStudent:
		return Student{Profile: profile}, nil
	case models.RoleTeacher:
		return Teacher{Profile: profile}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, profile.Role)
	}
}

// Store binds the principal to the request.
func Store(c *fiber.Ctx, principal Principal) {
	c.Locals(principalKey, principal)
}

// Current returns the principal bound by the session middleware.
func Current(c *fiber.Ctx) (Principal, bool) {
	if c == nil {
		return nil, false
	}
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok && principal != nil
}
