package watchlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/reelist-io/reelist/models"
	"github.com/reelist-io/reelist/services/enrich"
	"github.com/reelist-io/reelist/services/extract"
	"github.com/reelist-io/reelist/services/tmdb"
)

type mockStore struct {
	items    map[uuid.UUID]*models.WatchlistItem
	byTMDBID map[int64]*models.WatchlistItem

	createErr  error
	failCreate bool
}

func newMockStore() *mockStore {
	return &mockStore{
		items:    map[uuid.UUID]*models.WatchlistItem{},
		byTMDBID: map[int64]*models.WatchlistItem{},
	}
}

func (s *mockStore) add(item *models.WatchlistItem) *models.WatchlistItem {
	if item.ItemID == uuid.Nil {
		item.ItemID = uuid.NewV4()
	}
	s.items[item.ItemID] = item
	s.byTMDBID[item.TMDBID] = item
	return item
}

func (s *mockStore) Create(ctx context.Context, item *models.WatchlistItem) error {
	if s.failCreate {
		return s.createErr
	}
	if _, ok := s.byTMDBID[item.TMDBID]; ok {
		return models.ErrItemExists
	}
	s.add(item)
	return nil
}

func (s *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.WatchlistItem, error) {
	return s.items[id], nil
}

func (s *mockStore) GetByTMDBID(ctx context.Context, tmdbID int64) (*models.WatchlistItem, error) {
	return s.byTMDBID[tmdbID], nil
}

func (s *mockStore) List(ctx context.Context, status *models.ItemStatus) ([]*models.WatchlistItem, error) {
	var out []*models.WatchlistItem
	for _, item := range s.items {
		if status != nil && item.Status != *status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *mockStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) (*models.WatchlistItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	item.Status = status
	if status == models.StatusWatched {
		now := time.Now()
		item.WatchedAt = &now
	} else {
		item.WatchedAt = nil
	}
	return item, nil
}

func (s *mockStore) UpdatePersonal(ctx context.Context, id uuid.UUID, rating *float64, notes *string) (*models.WatchlistItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	if rating != nil {
		item.PersonalRating = rating
	}
	if notes != nil {
		item.PersonalNotes = notes
	}
	return item, nil
}

func (s *mockStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

type mockEnricher struct {
	enrichment *enrich.Enrichment
	err        error
}

func (s *mockEnricher) ResolveAndEnrich(ctx context.Context, res *extract.Result) (*enrich.Enrichment, error) {
	return s.enrichment, s.err
}

type mockExtractor struct {
	result *extract.Result
	err    error
	input  string
}

func (s *mockExtractor) Extract(ctx context.Context, input string) (*extract.Result, error) {
	s.input = input
	return s.result, s.err
}

type mockCatalog struct {
	video *tmdb.Video
	cast  []tmdb.CastMember
}

func (s *mockCatalog) GetPrimaryVideo(ctx context.Context, id int64) (*tmdb.Video, error) {
	return s.video, nil
}

func (s *mockCatalog) GetTopCredits(ctx context.Context, id int64) ([]tmdb.CastMember, error) {
	return s.cast, nil
}

func newTestHandler(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.register(r)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeItem(t *testing.T, w *httptest.ResponseRecorder) *ItemResponse {
	t.Helper()
	var item ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &item
}

func heatEnrichment() *enrich.Enrichment {
	overview := "A cat and mouse story."
	return &enrich.Enrichment{
		Title:    "Heat",
		TMDBID:   949,
		Genres:   []string{"Crime"},
		Overview: &overview,
	}
}

func TestIntakeMissingInput(t *testing.T) {
	r := newTestHandler(&Handler{store: newMockStore()})
	w := doJSON(r, "POST", "/api/items/intake", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestIntakeExtractionFailed(t *testing.T) {
	r := newTestHandler(&Handler{
		store:    newMockStore(),
		enricher: &mockEnricher{},
		text:     &mockExtractor{err: extract.ErrNoTitle},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "asdfgh"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestIntakeNoMatch(t *testing.T) {
	r := newTestHandler(&Handler{
		store:    newMockStore(),
		enricher: &mockEnricher{err: enrich.ErrNotFound},
		text:     &mockExtractor{result: &extract.Result{Title: "Nonexistent"}},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "some made up movie"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestIntakeUpstreamUnavailable(t *testing.T) {
	r := newTestHandler(&Handler{
		store:    newMockStore(),
		enricher: &mockEnricher{err: errors.Wrap(enrich.ErrUpstreamUnavailable, "search")},
		text:     &mockExtractor{result: &extract.Result{Title: "Heat"}},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "heat"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestIntakeDuplicate(t *testing.T) {
	store := newMockStore()
	store.add(&models.WatchlistItem{TMDBID: 949, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{
		store:    store,
		enricher: &mockEnricher{enrichment: heatEnrichment()},
		text:     &mockExtractor{result: &extract.Result{Title: "Heat"}},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "heat"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	var resp struct {
		Error string        `json:"error"`
		Item  *ItemResponse `json:"item"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Item == nil || resp.Item.TMDBID != 949 {
		t.Errorf("expected existing item in conflict response, got %v", resp.Item)
	}
}

func TestIntakeInsertRace(t *testing.T) {
	store := newMockStore()
	store.failCreate = true
	store.createErr = models.ErrItemExists
	r := newTestHandler(&Handler{
		store:    store,
		enricher: &mockEnricher{enrichment: heatEnrichment()},
		text:     &mockExtractor{result: &extract.Result{Title: "Heat"}},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "heat"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on insert race, got %d", w.Code)
	}
}

func TestIntakeSuccess(t *testing.T) {
	store := newMockStore()
	r := newTestHandler(&Handler{
		store:    store,
		enricher: &mockEnricher{enrichment: heatEnrichment()},
		text:     &mockExtractor{result: &extract.Result{Title: "Heat"}},
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "that De Niro heist movie"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	item := decodeItem(t, w)
	if item.Title != "Heat" || item.TMDBID != 949 {
		t.Errorf("unexpected item %v", item)
	}
	if item.Status != string(models.StatusToWatch) {
		t.Errorf("expected new item to be to_watch, got %q", item.Status)
	}
	if item.RawInput != "that De Niro heist movie" {
		t.Errorf("expected raw input preserved, got %q", item.RawInput)
	}
}

func TestIntakeImageWinsOverText(t *testing.T) {
	text := &mockExtractor{result: &extract.Result{Title: "Wrong"}}
	image := &mockExtractor{result: &extract.Result{Title: "Heat"}}
	store := newMockStore()
	r := newTestHandler(&Handler{
		store:    store,
		enricher: &mockEnricher{enrichment: heatEnrichment()},
		text:     text,
		image:    image,
	})
	w := doJSON(r, "POST", "/api/items/intake", `{"input": "ignored", "image": "data:image/png;base64,abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if image.input != "data:image/png;base64,abc" {
		t.Errorf("expected image extractor to receive the image, got %q", image.input)
	}
	if text.input != "" {
		t.Errorf("expected text extractor to stay unused, got %q", text.input)
	}
	item := decodeItem(t, w)
	if item.RawInput != "[Image upload]" {
		t.Errorf("expected image placeholder raw input, got %q", item.RawInput)
	}
}

func TestIndexGroupsByStatus(t *testing.T) {
	store := newMockStore()
	store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	store.add(&models.WatchlistItem{TMDBID: 2, Title: "Alien", Status: models.StatusWatched})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "GET", "/api/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		ToWatch []*ItemResponse `json:"to_watch"`
		Watched []*ItemResponse `json:"watched"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.ToWatch) != 1 || resp.ToWatch[0].Title != "Heat" {
		t.Errorf("unexpected to_watch group %v", resp.ToWatch)
	}
	if len(resp.Watched) != 1 || resp.Watched[0].Title != "Alien" {
		t.Errorf("unexpected watched group %v", resp.Watched)
	}
}

func TestIndexWithStatusIsFlat(t *testing.T) {
	store := newMockStore()
	store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	store.add(&models.WatchlistItem{TMDBID: 2, Title: "Alien", Status: models.StatusWatched})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "GET", "/api/items?status=watched", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var items []*ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("expected a flat list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Alien" {
		t.Errorf("unexpected items %v", items)
	}
}

func TestIndexInvalidStatus(t *testing.T) {
	r := newTestHandler(&Handler{store: newMockStore()})
	w := doJSON(r, "GET", "/api/items?status=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetItemNotFound(t *testing.T) {
	r := newTestHandler(&Handler{store: newMockStore()})
	w := doJSON(r, "GET", "/api/items/"+uuid.NewV4().String(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetItemMalformedID(t *testing.T) {
	r := newTestHandler(&Handler{store: newMockStore()})
	w := doJSON(r, "GET", "/api/items/not-a-uuid", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", w.Code)
	}
}

func TestRemoveItem(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "DELETE", "/api/items/"+item.ItemID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doJSON(r, "DELETE", "/api/items/"+item.ItemID.String(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestStatusUpdate(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "PATCH", "/api/items/"+item.ItemID.String()+"/status", `{"status": "watched"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeItem(t, w)
	if got.Status != "watched" {
		t.Errorf("expected watched status, got %q", got.Status)
	}
	if got.WatchedAt == nil {
		t.Error("expected watched_at to be set")
	}
}

func TestStatusUpdateInvalid(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "PATCH", "/api/items/"+item.ItemID.String()+"/status", `{"status": "maybe"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPersonalUpdate(t *testing.T) {
	store := newMockStore()
	notes := "old notes"
	item := store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch, PersonalNotes: &notes})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "PATCH", "/api/items/"+item.ItemID.String()+"/personal", `{"personal_rating": 4.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeItem(t, w)
	if got.PersonalRating == nil || *got.PersonalRating != 4.5 {
		t.Errorf("unexpected rating %v", got.PersonalRating)
	}
	// absent notes keep their stored value
	if got.PersonalNotes == nil || *got.PersonalNotes != "old notes" {
		t.Errorf("expected notes preserved, got %v", got.PersonalNotes)
	}
}

func TestPersonalUpdateRatingOutOfRange(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 1, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "PATCH", "/api/items/"+item.ItemID.String()+"/personal", `{"personal_rating": 6}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDetails(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 949, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{
		store: store,
		catalog: &mockCatalog{
			video: &tmdb.Video{Key: "abc", Name: "Official Trailer", Site: "YouTube", Type: "Trailer", Official: true},
			cast:  []tmdb.CastMember{{Name: "Al Pacino", Character: "Vincent Hanna"}},
		},
	})

	w := doJSON(r, "GET", "/api/items/"+item.ItemID.String()+"/details", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp DetailsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].Key != "abc" {
		t.Errorf("unexpected videos %v", resp.Videos)
	}
	if len(resp.Credits) != 1 || resp.Credits[0].Name != "Al Pacino" {
		t.Errorf("unexpected credits %v", resp.Credits)
	}
}

func TestDetailsWithoutCatalog(t *testing.T) {
	store := newMockStore()
	item := store.add(&models.WatchlistItem{TMDBID: 949, Title: "Heat", Status: models.StatusToWatch})
	r := newTestHandler(&Handler{store: store})

	w := doJSON(r, "GET", "/api/items/"+item.ItemID.String()+"/details", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp DetailsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Videos) != 0 {
		t.Errorf("expected no videos, got %v", resp.Videos)
	}
	if len(resp.Credits) != 0 {
		t.Errorf("expected empty credits, got %v", resp.Credits)
	}
}
