// Package profile provides mentor and student profile models, their
// repositories, and the adapters that turn them into feed candidates and
// back into display cards.
package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors for profile operations.
var (
	ErrMentorNotFound = errors.New("mentor not found")
	ErrUserNotFound   = errors.New("user not found")
)

// AdmissionType is how a student intends to enter university.
type AdmissionType string

const (
	AdmissionEGE       AdmissionType = "ege"
	AdmissionOlympiads AdmissionType = "olympiads"
)

// Valid reports whether a is empty or a known admission type.
func (a AdmissionType) Valid() bool {
	switch a {
	case "", AdmissionEGE, AdmissionOlympiads:
		return true
	}
	return false
}

// Mentor is a university student offering guidance.
type Mentor struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Login         string        `json:"login"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	University    string        `json:"university"`
	AdmissionType AdmissionType `json:"admission_type,omitempty"`
	AvatarUUID    *uuid.UUID    `json:"avatar_uuid,omitempty"`
}

// User is a prospective student looking for a mentor.
type User struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Login              string        `json:"login"`
	Description        string        `json:"description"`
	TargetUniversities []string      `json:"target_universities"`
	AdmissionType      AdmissionType `json:"admission_type,omitempty"`
	AvatarUUID         *uuid.UUID    `json:"avatar_uuid,omitempty"`
}

// MentorFilter narrows the mentor list to those relevant for a student.
// An empty field places no constraint.
type MentorFilter struct {
	Universities  []string
	AdmissionType AdmissionType
}

// UserFilter narrows the student list to those relevant for a mentor.
// An empty field places no constraint.
type UserFilter struct {
	University    string
	AdmissionType AdmissionType
}

// Repository reads profiles. List methods order by ID ascending and return
// the page plus the total number of matching rows.
type Repository interface {
	// ListMentors returns mentors matching f. A nil filter matches all.
	ListMentors(ctx context.Context, f *MentorFilter, page, size int) ([]*Mentor, int, error)

	// ListUsers returns students matching f. A nil filter matches all.
	ListUsers(ctx context.Context, f *UserFilter, page, size int) ([]*User, int, error)

	// MentorsByID returns the mentors that exist among ids, in any order.
	MentorsByID(ctx context.Context, ids []int64) ([]*Mentor, error)

	// UsersByID returns the students that exist among ids, in any order.
	UsersByID(ctx context.Context, ids []int64) ([]*User, error)

	GetMentor(ctx context.Context, id int64) (*Mentor, error)
	GetUser(ctx context.Context, id int64) (*User, error)

	CountMentors(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
}

// FilterForUser builds the mentor filter for a student requester.
func FilterForUser(u *User) *MentorFilter {
	return &MentorFilter{
		Universities:  u.TargetUniversities,
		AdmissionType: u.AdmissionType,
	}
}

// FilterForMentor builds the student filter for a mentor requester.
func FilterForMentor(m *Mentor) *UserFilter {
	return &UserFilter{
		University:    m.University,
		AdmissionType: m.AdmissionType,
	}
}

func (f *MentorFilter) matches(m *Mentor) bool {
	if f == nil {
		return true
	}
	if len(f.Universities) > 0 && !contains(f.Universities, m.University) {
		return false
	}
	if f.AdmissionType != "" && m.AdmissionType != f.AdmissionType {
		return false
	}
	return true
}

func (f *UserFilter) matches(u *User) bool {
	if f == nil {
		return true
	}
	if f.University != "" && !contains(u.TargetUniversities, f.University) {
		return false
	}
	if f.AdmissionType != "" && u.AdmissionType != f.AdmissionType {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// offset returns the row offset for a 1-based page.
func offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
