package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/mentorfeed/internal/feed"
)

func TestMentorSource_Fetch(t *testing.T) {
	repo := seedRepo()
	student, _ := repo.GetUser(context.Background(), 10) // targets MIT, Caltech via EGE

	tests := []struct {
		name     string
		src      MentorSource
		filtered bool
		wantIDs  []int64
	}{
		{"anonymous unfiltered", MentorSource{Repo: repo}, false, []int64{1, 2, 3}},
		{"anonymous filtered behaves unfiltered", MentorSource{Repo: repo}, true, []int64{1, 2, 3}},
		{"requester unfiltered", MentorSource{Repo: repo, Requester: student}, false, []int64{1, 2, 3}},
		{"requester filtered", MentorSource{Repo: repo, Requester: student}, true, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := tt.src.Fetch(context.Background(), tt.filtered, 1, feed.CandidateFetchSize)
			if err != nil {
				t.Fatal(err)
			}
			ids := make([]int64, len(got))
			for i, c := range got {
				ids[i] = c.ID
			}
			if !equalIDs(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
			if total != len(tt.wantIDs) {
				t.Errorf("total = %d, want %d", total, len(tt.wantIDs))
			}
		})
	}
}

func TestMentorSource_CandidateTextIsDescription(t *testing.T) {
	got, _, err := MentorSource{Repo: seedRepo()}.Fetch(context.Background(), false, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got[2].ID != 3 || got[2].Text != "physics olympiad winner" {
		t.Errorf("unexpected candidate %+v", got[2])
	}
}

func TestUserSource_Fetch(t *testing.T) {
	repo := seedRepo()
	mentor, _ := repo.GetMentor(context.Background(), 3) // MIT via olympiads

	got, total, err := UserSource{Repo: repo, Requester: mentor}.Fetch(context.Background(), true, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != 12 {
		t.Errorf("got %+v (total %d), want only user 12", got, total)
	}
}

type brokenRepo struct{ Repository }

func (brokenRepo) ListMentors(context.Context, *MentorFilter, int, int) ([]*Mentor, int, error) {
	return nil, 0, errors.New("db down")
}

func TestMentorSource_PropagatesError(t *testing.T) {
	if _, _, err := (MentorSource{Repo: brokenRepo{}}).Fetch(context.Background(), false, 1, 10); err == nil {
		t.Error("expected repository error to propagate")
	}
}

func TestSources_ImplementFeedSource(t *testing.T) {
	var _ feed.Source = MentorSource{}
	var _ feed.Source = UserSource{}
}
