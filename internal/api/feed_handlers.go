package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/onnwee/mentorfeed/internal/auth"
	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/middleware"
	"github.com/onnwee/mentorfeed/internal/profile"
	"github.com/onnwee/mentorfeed/internal/validate"
)

// FeedResponse is one page of a ranked feed with hydrated profile cards.
type FeedResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// FeedHandlers serves the mentor and student feeds.
type FeedHandlers struct {
	mentors  *feed.Composer
	users    *feed.Composer
	repo     profile.Repository
	hydrator *profile.Hydrator
	logger   *slog.Logger
}

// NewFeedHandlers creates the feed handlers. mentors composes the feed shown
// to students and users the feed shown to mentors; they should use distinct
// cache key prefixes.
func NewFeedHandlers(mentors, users *feed.Composer, repo profile.Repository, hydrator *profile.Hydrator, logger *slog.Logger) *FeedHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandlers{
		mentors:  mentors,
		users:    users,
		repo:     repo,
		hydrator: hydrator,
		logger:   logger,
	}
}

// parseFeedParams reads filtered, page, size and prompt. Unparseable
// numbers and booleans take their defaults and the composer clamps page and
// size; only an invalid prompt is an error.
func parseFeedParams(q url.Values) (feed.Request, error) {
	prompt, err := validate.Prompt(q.Get("prompt"))
	if err != nil {
		return feed.Request{}, err
	}
	req := feed.Request{
		Filtered: true,
		Page:     1,
		Size:     feed.DefaultPageSize,
		Prompt:   prompt,
	}
	if v := q.Get("filtered"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			req.Filtered = b
		}
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil {
		req.Size = v
	}
	return req, nil
}

// MentorsFeed handles GET /feed/mentors. A caller authenticated as a
// student gets mentors filtered by and ranked against their profile.
func (h *FeedHandlers) MentorsFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}
	ctx := r.Context()
	req, err := parseFeedParams(r.URL.Query())
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid prompt: "+err.Error())
		return
	}

	requester, err := h.requestingUser(ctx)
	if err != nil {
		h.dependencyFailure(w, ctx, "failed to load requester", err)
		return
	}
	if requester != nil {
		req.HasRequester = true
		req.RequesterText = requester.Description
		middleware.SetRequester(ctx, "user:"+strconv.FormatInt(requester.ID, 10))
	}

	result, err := h.mentors.Feed(ctx, profile.MentorSource{Repo: h.repo, Requester: requester}, req)
	if err != nil {
		h.feedFailure(w, ctx, err)
		return
	}

	cards, err := h.hydrator.Mentors(ctx, result.Items)
	if err != nil {
		h.dependencyFailure(w, ctx, "failed to hydrate mentors", err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, newFeedResponse(cards, result))
}

// UsersFeed handles GET /feed/users. A caller authenticated as a mentor
// gets students filtered by and ranked against their profile.
func (h *FeedHandlers) UsersFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}
	ctx := r.Context()
	req, err := parseFeedParams(r.URL.Query())
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid prompt: "+err.Error())
		return
	}

	requester, err := h.requestingMentor(ctx)
	if err != nil {
		h.dependencyFailure(w, ctx, "failed to load requester", err)
		return
	}
	if requester != nil {
		req.HasRequester = true
		req.RequesterText = requester.Description
		middleware.SetRequester(ctx, "mentor:"+strconv.FormatInt(requester.ID, 10))
	}

	result, err := h.users.Feed(ctx, profile.UserSource{Repo: h.repo, Requester: requester}, req)
	if err != nil {
		h.feedFailure(w, ctx, err)
		return
	}

	cards, err := h.hydrator.Users(ctx, result.Items)
	if err != nil {
		h.dependencyFailure(w, ctx, "failed to hydrate users", err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, newFeedResponse(cards, result))
}

// requestingUser returns the student behind the request, or nil when the
// caller is anonymous, holds another role, or no longer exists.
func (h *FeedHandlers) requestingUser(ctx context.Context) (*profile.User, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok || id.Role != auth.RoleUser {
		return nil, nil
	}
	u, err := h.repo.GetUser(ctx, id.ProfileID)
	if profile.IsNotFound(err) {
		return nil, nil
	}
	return u, err
}

// requestingMentor is requestingUser for the mentor role.
func (h *FeedHandlers) requestingMentor(ctx context.Context) (*profile.Mentor, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok || id.Role != auth.RoleMentor {
		return nil, nil
	}
	m, err := h.repo.GetMentor(ctx, id.ProfileID)
	if profile.IsNotFound(err) {
		return nil, nil
	}
	return m, err
}

func (h *FeedHandlers) feedFailure(w http.ResponseWriter, ctx context.Context, err error) {
	if errors.Is(err, feed.ErrCandidateSource) {
		h.dependencyFailure(w, ctx, "failed to fetch feed candidates", err)
		return
	}
	// Compose only fails once the request context is done.
	h.logger.WarnContext(ctx, "feed request aborted", slog.String("error", err.Error()))
	WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeDependency, "Request cancelled")
}

func (h *FeedHandlers) dependencyFailure(w http.ResponseWriter, ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeDependency, "Profile store unavailable")
}

func newFeedResponse[T any](cards []T, result feed.Result) FeedResponse[T] {
	if cards == nil {
		cards = []T{}
	}
	return FeedResponse[T]{
		Items: cards,
		Total: result.Total,
		Page:  result.Page,
		Size:  result.Size,
		Pages: result.Pages,
	}
}
