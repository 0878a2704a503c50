package profile

import (
	"context"

	"github.com/onnwee/mentorfeed/internal/feed"
)

// MentorSource supplies mentors as feed candidates for a student. Requester
// may be nil for anonymous requests.
type MentorSource struct {
	Repo      Repository
	Requester *User
}

// Fetch lists mentors, filtered by the requester's targets when filtered is
// set and a requester is present. Candidate text is the mentor description.
func (s MentorSource) Fetch(ctx context.Context, filtered bool, page, size int) ([]feed.Candidate, int, error) {
	var f *MentorFilter
	if filtered && s.Requester != nil {
		f = FilterForUser(s.Requester)
	}

	mentors, total, err := s.Repo.ListMentors(ctx, f, page, size)
	if err != nil {
		return nil, 0, err
	}

	out := make([]feed.Candidate, len(mentors))
	for i, m := range mentors {
		out[i] = feed.Candidate{ID: m.ID, Text: m.Description}
	}
	return out, total, nil
}

// UserSource supplies students as feed candidates for a mentor. Requester
// may be nil for anonymous requests.
type UserSource struct {
	Repo      Repository
	Requester *Mentor
}

// Fetch lists students, filtered by the requester's university when
// filtered is set and a requester is present.
func (s UserSource) Fetch(ctx context.Context, filtered bool, page, size int) ([]feed.Candidate, int, error) {
	var f *UserFilter
	if filtered && s.Requester != nil {
		f = FilterForMentor(s.Requester)
	}

	users, total, err := s.Repo.ListUsers(ctx, f, page, size)
	if err != nil {
		return nil, 0, err
	}

	out := make([]feed.Candidate, len(users))
	for i, u := range users {
		out[i] = feed.Candidate{ID: u.ID, Text: u.Description}
	}
	return out, total, nil
}
