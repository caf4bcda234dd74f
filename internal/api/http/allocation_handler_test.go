package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	api "stockledger-backend/internal/api/http"
	"stockledger-backend/internal/config"
	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/security"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAllocationService struct{ mock.Mock }

func (m *MockAllocationService) Issue(ctx context.Context, req domain.IssueRequest) (*domain.Allocation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}

func (m *MockAllocationService) Amend(ctx context.Context, id int32, changes domain.AllocationChanges) (*domain.Allocation, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}

func (m *MockAllocationService) Delete(ctx context.Context, id int32) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAllocationService) MarkExhausted(ctx context.Context, id int32, reason *string) (*domain.Allocation, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}

type MockQueryService struct{ mock.Mock }

func (m *MockQueryService) List(ctx context.Context, f domain.AllocationFilter) ([]domain.AllocationView, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.AllocationView), args.Get(1).(int32), args.Error(2)
}

func (m *MockQueryService) Get(ctx context.Context, id int32) (*domain.AllocationView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationView), args.Error(1)
}

type MockAlertService struct{ mock.Mock }

func (m *MockAlertService) ListAlerts(ctx context.Context, page, pageSize int32) ([]domain.StockAlert, int32, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]domain.StockAlert), args.Get(1).(int32), args.Error(2)
}

func (m *MockAlertService) Acknowledge(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAlertService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	router *mux.Router
	ledger *MockAllocationService
	query  *MockQueryService
	alerts *MockAlertService
	writer string
	reader string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		router: mux.NewRouter(),
		ledger: new(MockAllocationService),
		query:  new(MockQueryService),
		alerts: new(MockAlertService),
	}
	tm := security.NewTokenManager(testSecret, time.Hour)
	var err error
	f.writer, err = tm.GenerateAccessToken(1, "clerk@example.com", []string{config.PermissionLedgerWrite})
	require.NoError(t, err)
	f.reader, err = tm.GenerateAccessToken(2, "viewer@example.com", nil)
	require.NoError(t, err)

	h := api.NewAllocationHandler(f.ledger, f.query, f.alerts)
	api.RegisterRoutes(f.router, h, api.NewAuthMiddleware(tm), nil)
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthz_Public(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuth(t *testing.T) {
	f := newFixture(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/allocations", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/allocations", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ReaderCannotWrite", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/allocations", f.reader, `{"item_id":1,"quantity":1}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.ledger.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})
}

func TestHandleIssue(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.On("Issue", mock.Anything, mock.MatchedBy(func(req domain.IssueRequest) bool {
			return req.ItemID == 7 && req.Quantity == 5 && req.Note != nil && *req.Note == "line 3"
		})).Return(&domain.Allocation{ID: 11, ItemID: 7, Quantity: 5, IsActive: true}, nil)

		rec := f.do(http.MethodPost, "/api/v1/allocations", f.writer, `{"item_id":7,"quantity":5,"note":"line 3"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var got domain.Allocation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int32(11), got.ID)
		f.ledger.AssertExpectations(t)
	})

	t.Run("TrailingData", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/allocations", f.writer, `{"item_id":7,"quantity":5}garbage`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(http.MethodPost, "/api/v1/allocations", f.writer, `{"item_id":7,"quantity":5}{"item_id":8}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.ledger.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})

	t.Run("TrailingWhitespace", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.On("Issue", mock.Anything, mock.Anything).Return(&domain.Allocation{ID: 12}, nil)
		rec := f.do(http.MethodPost, "/api/v1/allocations", f.writer, "{\"item_id\":7,\"quantity\":5}\n")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("UnknownField", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/allocations", f.writer, `{"item_id":7,"qty":5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.ledger.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})

	errCases := []struct {
		name   string
		err    error
		status int
	}{
		{"Validation", &domain.ValidationError{Field: "quantity", Reason: "must be a positive integer"}, http.StatusBadRequest},
		{"ItemNotFound", domain.ErrItemNotFound, http.StatusNotFound},
		{"InsufficientStock", &domain.InsufficientStockError{ItemID: 7, Available: 2, Requested: 5}, http.StatusConflict},
		{"Infrastructure", errors.New("connection reset by peer"), http.StatusInternalServerError},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.ledger.On("Issue", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := f.do(http.MethodPost, "/api/v1/allocations", f.writer, `{"item_id":7,"quantity":5}`)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", errorBody(t, rec))
			} else {
				assert.Equal(t, tc.err.Error(), errorBody(t, rec))
			}
		})
	}
}

func TestHandleList(t *testing.T) {
	t.Run("ParsesFilter", func(t *testing.T) {
		f := newFixture(t)
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		f.query.On("List", mock.Anything, mock.MatchedBy(func(fl domain.AllocationFilter) bool {
			return assert.ObjectsAreEqual([]int32{1, 2, 3}, fl.ItemIDs) &&
				fl.IsActive != nil && *fl.IsActive &&
				fl.IsExhausted != nil && !*fl.IsExhausted &&
				fl.IssuedFrom != nil && fl.IssuedFrom.Equal(from) &&
				fl.IssuedTo == nil &&
				fl.Page == 2 && fl.PageSize == 10
		})).Return([]domain.AllocationView{{Allocation: domain.Allocation{ID: 4}}}, int32(11), nil)

		rec := f.do(http.MethodGet,
			"/api/v1/allocations?item_id=1&item_id=2,3&active=true&exhausted=false&from=2026-03-01T00:00:00Z&page=2&page_size=10",
			f.reader, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Allocations []domain.AllocationView `json:"allocations"`
			TotalCount  int32                   `json:"total_count"`
			Page        int32                   `json:"page"`
			PageSize    int32                   `json:"page_size"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Allocations, 1)
		assert.Equal(t, int32(11), body.TotalCount)
		assert.Equal(t, int32(2), body.Page)
		assert.Equal(t, int32(10), body.PageSize)
	})

	t.Run("DefaultsPaging", func(t *testing.T) {
		f := newFixture(t)
		f.query.On("List", mock.Anything, mock.Anything).Return([]domain.AllocationView{}, int32(0), nil)

		rec := f.do(http.MethodGet, "/api/v1/allocations", f.reader, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"allocations":[]`)
		assert.Contains(t, rec.Body.String(), `"page_size":50`)
	})

	badQueries := []string{"item_id=abc", "active=maybe", "from=yesterday", "page=x"}
	for _, q := range badQueries {
		t.Run("Bad_"+q, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodGet, "/api/v1/allocations?"+q, f.reader, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			f.query.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t)
	f.query.On("Get", mock.Anything, int32(9)).Return(&domain.AllocationView{
		Allocation: domain.Allocation{ID: 9, ItemID: 3},
		Item:       domain.ItemSummary{ID: 3, Name: "Nitrile gloves"},
	}, nil)
	f.query.On("Get", mock.Anything, int32(10)).Return(nil, domain.ErrAllocationNotFound)

	rec := f.do(http.MethodGet, "/api/v1/allocations/9", f.reader, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nitrile gloves")

	rec = f.do(http.MethodGet, "/api/v1/allocations/10", f.reader, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/allocations/0", f.reader, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAmend(t *testing.T) {
	f := newFixture(t)
	f.ledger.On("Amend", mock.Anything, int32(5), mock.MatchedBy(func(c domain.AllocationChanges) bool {
		return c.Quantity != nil && *c.Quantity == 6 && c.IsActive == nil
	})).Return(&domain.Allocation{ID: 5, Quantity: 6, IsActive: true}, nil)

	rec := f.do(http.MethodPatch, "/api/v1/allocations/5", f.writer, `{"quantity":6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	f.ledger.AssertExpectations(t)
}

func TestHandleDelete(t *testing.T) {
	f := newFixture(t)
	f.ledger.On("Delete", mock.Anything, int32(5)).Return(int64(1), nil)
	f.ledger.On("Delete", mock.Anything, int32(6)).Return(int64(0), nil)

	rec := f.do(http.MethodDelete, "/api/v1/allocations/5", f.writer, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/allocations/6", f.writer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMarkExhausted(t *testing.T) {
	t.Run("EmptyBody", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.On("MarkExhausted", mock.Anything, int32(3), (*string)(nil)).
			Return(&domain.Allocation{ID: 3, IsExhausted: true}, nil)

		rec := f.do(http.MethodPost, "/api/v1/allocations/3/exhaust", f.writer, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		f.ledger.AssertExpectations(t)
	})

	t.Run("WithReason", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.On("MarkExhausted", mock.Anything, int32(3), mock.MatchedBy(func(r *string) bool {
			return r != nil && *r == "box empty"
		})).Return(&domain.Allocation{ID: 3, IsExhausted: true}, nil)

		rec := f.do(http.MethodPost, "/api/v1/allocations/3/exhaust", f.writer, `{"reason":"box empty"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("AlreadyExhausted", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.On("MarkExhausted", mock.Anything, int32(3), mock.Anything).Return(nil, domain.ErrAlreadyExhausted)

		rec := f.do(http.MethodPost, "/api/v1/allocations/3/exhaust", f.writer, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAlerts(t *testing.T) {
	f := newFixture(t)
	f.alerts.On("ListAlerts", mock.Anything, int32(0), int32(20)).
		Return([]domain.StockAlert{{ID: 1, ItemName: "Tape"}}, int32(1), nil)
	f.alerts.On("Acknowledge", mock.Anything, int32(1)).Return(nil)
	f.alerts.On("Acknowledge", mock.Anything, int32(2)).Return(domain.ErrStockAlertNotFound)

	rec := f.do(http.MethodGet, "/api/v1/alerts?page_size=20", f.reader, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)

	rec = f.do(http.MethodPost, "/api/v1/alerts/1/ack", f.writer, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/alerts/2/ack", f.writer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/alerts/1/ack", f.reader, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
