package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plantmate/internal/auth"
	"plantmate/internal/storage"
)

func seededStore() *storage.InMemoryStore {
	store := storage.NewInMemoryStore()
	store.PutUser(storage.User{ID: 1, Address: "서울특별시 중구 세종대로 110"})
	store.PutUser(storage.User{ID: 2, Address: "  "})
	store.PutUser(storage.User{ID: 3, Address: "부산광역시 해운대구"})
	store.RegisterPlant(1, "행운목")
	store.AddGrowthReport(storage.GrowthReport{UserID: 1, PlantName: "스투키"})
	store.AddGrowthReport(storage.GrowthReport{UserID: 1, PlantName: "몬스테라"})
	store.AddGrowthReport(storage.GrowthReport{UserID: 1, PlantName: "스투키"})
	store.RegisterPlant(3, "선인장")
	store.RegisterPlant(3, "고무나무")
	store.RegisterPlant(3, "선인장")
	return store
}

func TestPlantNamesPrefersReports(t *testing.T) {
	l := Lookup{Store: seededStore()}

	got, err := l.PlantNames(context.Background(), 1)
	if err != nil {
		t.Fatalf("PlantNames: %v", err)
	}
	if diff := cmp.Diff([]string{"몬스테라", "스투키"}, got); diff != "" {
		t.Errorf("plants (-want +got):\n%s", diff)
	}
}

func TestPlantNamesFallsBackToRegistrations(t *testing.T) {
	l := Lookup{Store: seededStore()}

	got, err := l.PlantNames(context.Background(), 3)
	if err != nil {
		t.Fatalf("PlantNames: %v", err)
	}
	if diff := cmp.Diff([]string{"선인장", "고무나무"}, got); diff != "" {
		t.Errorf("plants (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	l := Lookup{Store: seededStore()}
	ctx := context.Background()

	p, err := l.Resolve(ctx, 1, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Address != "서울특별시 중구 세종대로 110" || len(p.Plants) != 2 {
		t.Errorf("profile = %+v", p)
	}

	if _, err := l.Resolve(ctx, 2, ""); !errors.Is(err, ErrNoAddress) {
		t.Errorf("blank address: err = %v", err)
	}
	if _, err := l.Resolve(ctx, 404, ""); !errors.Is(err, ErrNoAddress) {
		t.Errorf("unknown user: err = %v", err)
	}

	p, err = l.Resolve(ctx, 404, "제주시")
	if !errors.Is(err, ErrNoPlants) {
		t.Errorf("override without plants: p=%+v err=%v", p, err)
	}

	store := seededStore()
	store.RegisterPlant(2, "산세베리아")
	p, err = Lookup{Store: store}.Resolve(ctx, 2, " 대전광역시 ")
	if err != nil || p.Address != "대전광역시" {
		t.Errorf("override: p=%+v err=%v", p, err)
	}
}

func withUser(r *http.Request, id int) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), id))
}

func TestMyPlantsHandler(t *testing.T) {
	store := seededStore()
	h := Handler{Lookup: Lookup{Store: store}, Store: store}

	rec := httptest.NewRecorder()
	h.MyPlants(rec, withUser(httptest.NewRequest(http.MethodGet, "/my-plants", nil), 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Plants []string `json:"plants"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"몬스테라", "스투키"}, body.Plants); diff != "" {
		t.Errorf("plants (-want +got):\n%s", diff)
	}

	rec = httptest.NewRecorder()
	h.MyPlants(rec, withUser(httptest.NewRequest(http.MethodGet, "/my-plants", nil), 2))
	if strings.TrimSpace(rec.Body.String()) != `{"plants":[]}` {
		t.Errorf("empty body = %s", rec.Body.String())
	}
}

func TestUpdateAddressHandler(t *testing.T) {
	long := strings.Repeat("가", 201)
	cases := []struct {
		name   string
		userID int
		body   string
		status int
	}{
		{name: "ok", userID: 1, body: `{"address":"  서울특별시 종로구  "}`, status: http.StatusOK},
		{name: "blank", userID: 1, body: `{"address":"   "}`, status: http.StatusUnprocessableEntity},
		{name: "too short", userID: 1, body: `{"address":"가"}`, status: http.StatusUnprocessableEntity},
		{name: "too long", userID: 1, body: `{"address":"` + long + `"}`, status: http.StatusUnprocessableEntity},
		{name: "missing field", userID: 1, body: `{}`, status: http.StatusUnprocessableEntity},
		{name: "bad json", userID: 1, body: `{`, status: http.StatusUnprocessableEntity},
		{name: "unknown user", userID: 404, body: `{"address":"서울"}`, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := seededStore()
			h := Handler{Lookup: Lookup{Store: store}, Store: store}

			req := withUser(httptest.NewRequest(http.MethodPatch, "/users/me/address", strings.NewReader(tc.body)), tc.userID)
			rec := httptest.NewRecorder()
			h.UpdateAddress(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status != http.StatusOK {
				var body map[string]any
				_ = json.NewDecoder(rec.Body).Decode(&body)
				if _, ok := body["detail"]; !ok {
					t.Errorf("error body missing detail: %v", body)
				}
				return
			}
			user, _ := store.GetUser(context.Background(), tc.userID)
			if user.Address != "서울특별시 종로구" {
				t.Errorf("stored address = %q", user.Address)
			}
		})
	}
}
