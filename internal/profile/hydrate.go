package profile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// MentorCard is the public view of a mentor in a feed.
type MentorCard struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Login       string  `json:"login"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	University  string  `json:"university"`
	AvatarURL   *string `json:"avatar_url"`
}

// UserCard is the public view of a student in a feed.
type UserCard struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Login              string   `json:"login"`
	Description        string   `json:"description"`
	TargetUniversities []string `json:"target_universities"`
	AdmissionType      *string  `json:"admission_type"`
	AvatarURL          *string  `json:"avatar_url"`
}

// Hydrator loads current profile data for ranked IDs.
type Hydrator struct {
	repo    Repository
	avatars AvatarResolver
	logger  *slog.Logger
}

// NewHydrator creates a Hydrator. avatars may be nil, in which case avatar
// URLs are always null.
func NewHydrator(repo Repository, avatars AvatarResolver, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{repo: repo, avatars: avatars, logger: logger}
}

// Mentors returns cards for ids in the same order. IDs that no longer exist
// are skipped.
func (h *Hydrator) Mentors(ctx context.Context, ids []int64) ([]MentorCard, error) {
	mentors, err := h.repo.MentorsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Mentor, len(mentors))
	for _, m := range mentors {
		byID[m.ID] = m
	}

	cards := make([]MentorCard, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			continue
		}
		cards = append(cards, MentorCard{
			ID:          m.ID,
			Name:        m.Name,
			Login:       m.Login,
			Title:       m.Title,
			Description: m.Description,
			University:  m.University,
			AvatarURL:   h.avatarURL(ctx, m.AvatarUUID),
		})
	}
	return cards, nil
}

// Users returns cards for ids in the same order. IDs that no longer exist
// are skipped.
func (h *Hydrator) Users(ctx context.Context, ids []int64) ([]UserCard, error) {
	users, err := h.repo.UsersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	cards := make([]UserCard, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		var admission *string
		if u.AdmissionType != "" {
			s := string(u.AdmissionType)
			admission = &s
		}
		targets := u.TargetUniversities
		if targets == nil {
			targets = []string{}
		}
		cards = append(cards, UserCard{
			ID:                 u.ID,
			Name:               u.Name,
			Login:              u.Login,
			Description:        u.Description,
			TargetUniversities: targets,
			AdmissionType:      admission,
			AvatarURL:          h.avatarURL(ctx, u.AvatarUUID),
		})
	}
	return cards, nil
}

func (h *Hydrator) avatarURL(ctx context.Context, id *uuid.UUID) *string {
	if id == nil || h.avatars == nil {
		return nil
	}
	u, err := h.avatars.AvatarURL(ctx, *id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve avatar url",
			slog.String("avatar_uuid", id.String()),
			slog.String("error", err.Error()))
		return nil
	}
	return &u
}
