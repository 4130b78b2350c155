package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
)

type fakeStore struct {
	bookings map[string]*Booking
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[string]*Booking)}
}

func (f *fakeStore) Create(ctx context.Context, b *Booking) error {
	b.ID = "bk-1"
	b.Status = StatusRequested
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeStore) ListByClient(ctx context.Context, clientUserID string) ([]Booking, error) {
	out := make([]Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		if b.ClientUserID == clientUserID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByExpert(ctx context.Context, expertID string) ([]Booking, error) {
	out := make([]Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		if b.ExpertID == expertID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) Confirm(ctx context.Context, expertID, bookingID string) (*Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok || b.ExpertID != expertID || b.Status != StatusRequested {
		return nil, ErrNotFound
	}
	b.Status = StatusConfirmed
	out := *b
	return &out, nil
}

func (f *fakeStore) Cancel(ctx context.Context, userID, bookingID string) (*Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok || (b.ClientUserID != userID && b.ExpertID != userID) {
		return nil, ErrNotFound
	}
	b.Status = StatusCancelled
	out := *b
	return &out, nil
}

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(guard.CtxUserID, userID)
		c.Next()
	}
}

func newBookingRouter(store Store, clientID, expertID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterClient(r.Group("/bookings", asUser(clientID)), store)
	RegisterExpert(r.Group("/dashboard", asUser(expertID)), store)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBooking = `{
	"expert_id": "ex-1",
	"offering_id": "off-1",
	"date": "2026-09-01",
	"slot": "9:00 AM",
	"contact_name": "Cal Client",
	"contact_email": "cal@b.com"
}`

func TestCreateBooking_OwnedByCaller(t *testing.T) {
	store := newFakeStore()
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/bookings", validBooking)
	require.Equal(t, http.StatusCreated, w.Code)

	b := store.bookings["bk-1"]
	require.NotNil(t, b)
	assert.Equal(t, "cl-1", b.ClientUserID)
	assert.Equal(t, StatusRequested, b.Status)
}

func TestCreateBooking_InvalidBody(t *testing.T) {
	store := newFakeStore()
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/bookings", `{"expert_id":"ex-1","contact_email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.bookings)
}

func TestListBookings_ScopedToCaller(t *testing.T) {
	store := newFakeStore()
	store.bookings["bk-1"] = &Booking{ID: "bk-1", ClientUserID: "cl-1", ExpertID: "ex-1"}
	store.bookings["bk-2"] = &Booking{ID: "bk-2", ClientUserID: "cl-other", ExpertID: "ex-other"}
	r := newBookingRouter(store, "cl-1", "ex-1")

	var body struct {
		Bookings []Booking `json:"bookings"`
	}

	w := do(r, http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Bookings, 1)
	assert.Equal(t, "bk-1", body.Bookings[0].ID)

	w = do(r, http.MethodGet, "/dashboard/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Bookings, 1)
	assert.Equal(t, "bk-1", body.Bookings[0].ID)
}

func TestConfirmBooking(t *testing.T) {
	store := newFakeStore()
	store.bookings["bk-1"] = &Booking{
		ID: "bk-1", ClientUserID: "cl-1", ExpertID: "ex-1", Status: StatusRequested,
	}
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/dashboard/bookings/bk-1/confirm", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusConfirmed, store.bookings["bk-1"].Status)

	// Confirm is requested-only; a second confirm finds nothing to move.
	w = do(r, http.MethodPost, "/dashboard/bookings/bk-1/confirm", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmBooking_WrongExpert(t *testing.T) {
	store := newFakeStore()
	store.bookings["bk-1"] = &Booking{
		ID: "bk-1", ClientUserID: "cl-1", ExpertID: "someone-else", Status: StatusRequested,
	}
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/dashboard/bookings/bk-1/confirm", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, StatusRequested, store.bookings["bk-1"].Status)
}

func TestCancelBooking_EitherParty(t *testing.T) {
	store := newFakeStore()
	store.bookings["bk-1"] = &Booking{
		ID: "bk-1", ClientUserID: "cl-1", ExpertID: "ex-1", Status: StatusRequested,
	}
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/bookings/bk-1/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusCancelled, store.bookings["bk-1"].Status)
}

func TestCancelBooking_StrangerGets404(t *testing.T) {
	store := newFakeStore()
	store.bookings["bk-1"] = &Booking{
		ID: "bk-1", ClientUserID: "cl-other", ExpertID: "ex-other", Status: StatusRequested,
	}
	r := newBookingRouter(store, "cl-1", "ex-1")

	w := do(r, http.MethodPost, "/bookings/bk-1/cancel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, StatusRequested, store.bookings["bk-1"].Status)
}
