package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/listing"
)

func samplePlan() actionPlanRequest {
	return actionPlanRequest{
		Profiles: []entities.PlanProfile{{Name: entities.ProfileMetabolique, Percentage: "62%"}},
		Sections: entities.PlanSections{
			Dietetique:       []string{"Réduire les sucres rapides"},
			ActivitePhysique: []string{"30 minutes de marche par jour"},
		},
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, u := range []*entities.User{
		{Email: "helene@example.com", Name: "Hélène Dubois", PasswordHash: "h"},
		{Email: "marc@example.com", Name: "Marc Petit", PasswordHash: "h", RequestedPlan: true},
		{Email: "zoe@example.com", Name: "Zoé Bernard", PasswordHash: "h"},
	} {
		if err := env.store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("accent insensitive search", func(t *testing.T) {
		rr := serve(env.handler.ListUsers, newRequest(http.MethodGet, "/api/admin/users?search=helene", nil))
		expectStatus(t, rr, http.StatusOK)

		var body userListResponse
		decodeData(t, decodeEnvelope(t, rr), &body)
		if len(body.Users) != 1 || body.Users[0].Email != "helene@example.com" {
			t.Fatalf("users = %+v", body.Users)
		}
		if body.Pagination.Total != 1 || body.Pagination.Pages != 1 {
			t.Errorf("pagination = %+v", body.Pagination)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		rr := serve(env.handler.ListUsers, newRequest(http.MethodGet, "/api/admin/users?limit=2&page=2&sortBy=name&order=asc&requestedFirst=false", nil))
		expectStatus(t, rr, http.StatusOK)

		var body userListResponse
		decodeData(t, decodeEnvelope(t, rr), &body)
		if body.Pagination != (listing.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}) {
			t.Errorf("pagination = %+v", body.Pagination)
		}
		if len(body.Users) != 1 || body.Users[0].Email != "zoe@example.com" {
			t.Errorf("users = %+v", body.Users)
		}
	})

	t.Run("requested plan filter", func(t *testing.T) {
		rr := serve(env.handler.ListUsers, newRequest(http.MethodGet, "/api/admin/users?requestedPlan=true", nil))
		var body userListResponse
		decodeData(t, decodeEnvelope(t, rr), &body)
		if len(body.Users) != 1 || body.Users[0].Email != "marc@example.com" {
			t.Errorf("users = %+v", body.Users)
		}
	})

	t.Run("dangerous search is rejected", func(t *testing.T) {
		rr := serve(env.handler.ListUsers, newRequest(http.MethodGet, "/api/admin/users?search=%3Cscript%3E", nil))
		expectStatus(t, rr, http.StatusBadRequest)
	})
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	u := env.completeUser(t, "camille@example.com")

	tests := []struct {
		name     string
		id       string
		wantCode int
		wantMsg  string
	}{
		{"found", u.ID, http.StatusOK, ""},
		{"malformed id", "42", http.StatusBadRequest, "Invalid user ID"},
		{"unknown id", uuid.NewString(), http.StatusNotFound, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env.handler.GetUser, newRequest(http.MethodGet, "/api/admin/users/"+tt.id, nil, "id", tt.id))
			expectStatus(t, rr, tt.wantCode)
			resp := decodeEnvelope(t, rr)
			if tt.wantMsg != "" && resp.Message != tt.wantMsg {
				t.Errorf("message = %q", resp.Message)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var got map[string]any
			decodeData(t, resp, &got)
			if got["email"] != "camille@example.com" {
				t.Errorf("email = %v", got["email"])
			}
			if _, ok := got["profileCompleteness"]; !ok {
				t.Error("profileCompleteness missing")
			}
		})
	}
}

func TestGetUserDemande(t *testing.T) {
	env := newTestEnv(t)
	u := env.completeUser(t, "camille@example.com")

	get := func() userDemandeView {
		t.Helper()
		rr := serve(env.handler.GetUserDemande, newRequest(http.MethodGet, "/", nil, "id", u.ID))
		expectStatus(t, rr, http.StatusOK)
		var v userDemandeView
		decodeData(t, decodeEnvelope(t, rr), &v)
		return v
	}

	v := get()
	if v.Status != entities.DemandeStatusPending || v.Source != entities.SourceOnboarding {
		t.Errorf("status = %q source = %q", v.Status, v.Source)
	}
	if v.Patient["Sexe"] != "F" || v.Patient["Age"] != float64(40) {
		t.Errorf("patient = %v", v.Patient)
	}
	if len(v.MissingData) != 0 || len(v.Profiles) != 0 {
		t.Errorf("missing = %v profiles = %v", v.MissingData, v.Profiles)
	}

	rec := entities.PredictionRecord{Predictions: newMockPredictor().preds, Timestamp: testNow}
	if err := env.store.StorePrediction(context.Background(), u.ID, rec); err != nil {
		t.Fatal(err)
	}
	v = get()
	if v.Status != entities.DemandeStatusInProgress || len(v.Profiles) != 2 || v.AnalyzedAt == nil {
		t.Errorf("after prediction: %+v", v)
	}
	if v.Profiles[0].Profile != entities.ProfileMetabolique {
		t.Errorf("profiles not sorted: %+v", v.Profiles)
	}

	if err := env.store.AssignPlan(context.Background(), u.ID, uuid.NewString()); err != nil {
		t.Fatal(err)
	}
	if v = get(); v.Status != entities.DemandeStatusDone {
		t.Errorf("status after plan = %q", v.Status)
	}
}

func TestAssignPlan(t *testing.T) {
	env := newTestEnv(t)
	u := env.completeUser(t, "camille@example.com")
	if _, err := env.store.UpdateUser(context.Background(), u.ID, func(u *entities.User) error {
		u.RequestedPlan = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	rr := serve(env.handler.AssignPlan, env.asAdmin(t, newRequest(http.MethodPost, "/", samplePlan(), "id", u.ID)))
	expectStatus(t, rr, http.StatusCreated)

	var plan entities.ActionPlan
	decodeData(t, decodeEnvelope(t, rr), &plan)
	if plan.ID == "" || plan.UserID != u.ID || plan.CreatedBy == "" {
		t.Errorf("plan = %+v", plan)
	}

	updated, err := env.store.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.AssignedPlan != plan.ID || updated.RequestedPlan {
		t.Errorf("user not updated: assigned=%q requested=%v", updated.AssignedPlan, updated.RequestedPlan)
	}

	rr = serve(env.handler.AssignPlan, newRequest(http.MethodPost, "/", actionPlanRequest{}, "id", u.ID))
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.asAdmin(t, newRequest(http.MethodGet, "/", nil))
	u := env.completeUser(t, "camille@example.com")
	if err := env.store.CreateDemande(context.Background(), &entities.Demande{UserID: u.ID}); err != nil {
		t.Fatal(err)
	}

	rr := serve(env.handler.Stats, newRequest(http.MethodGet, "/api/admin/stats", nil))
	expectStatus(t, rr, http.StatusOK)

	var stats statsResponse
	decodeData(t, decodeEnvelope(t, rr), &stats)
	want := userStats{Total: 2, Admins: 1, OnboardingCompleted: 1}
	if stats.Users != want {
		t.Errorf("users = %+v, want %+v", stats.Users, want)
	}
	if stats.Demandes[entities.DemandeStatusPending] != 1 {
		t.Errorf("demandes = %v", stats.Demandes)
	}
}
