package user

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

// MockUserService is a mock implementation of the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, u api.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) Read(ctx context.Context, id string) (*api.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id string, u api.User) (*api.User, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id string) (*api.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.User), args.Error(1)
}

func setupHandlerTest() (*chi.Mux, *MockUserService) {
	mockService := new(MockUserService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlerImpl(mockService, logger)

	r := chi.NewRouter()
	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Get("/users/{id}", h.Read)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	return r, mockService
}

func doRequest(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestHandlerImpl_SignUp(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("SignUp", mock.Anything, api.User{Username: "alice", Email: "a@example.com", Password: "pw"}).
			Return("671f9d0b2c4e5a0012ab34cd", nil).Once()

		rec, envelope := doRequest(t, r, http.MethodPost, "/signup",
			`{"username":"alice","email":"a@example.com","password":"pw"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, envelope.Status)
		assert.Equal(t, http.StatusCreated, envelope.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, mockService := setupHandlerTest()

		rec, envelope := doRequest(t, r, http.MethodPost, "/signup", `{"username":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, envelope.Status)
		mockService.AssertNotCalled(t, "SignUp")
	})

	t.Run("storage failure", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("SignUp", mock.Anything, mock.Anything).
			Return("", api.NewStorageError("insert", errors.New("down"))).Once()

		rec, envelope := doRequest(t, r, http.MethodPost, "/signup", `{"username":"a","email":"e","password":"p"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, envelope.Status)
		mockService.AssertExpectations(t)
	})
}

func TestHandlerImpl_Login(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Login", mock.Anything, "alice", "correct").Return(true, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodPost, "/login", `{"username":"alice","password":"correct"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Status)
		assert.Equal(t, "Logged in successfully", envelope.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("rejected still answers 200", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Login", mock.Anything, "alice", "wrong").Return(false, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, envelope.Status)
		assert.Equal(t, "Invalid credentials", envelope.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Login", mock.Anything, "alice", "pw").
			Return(false, api.NewStorageError("find", errors.New("timeout"))).Once()

		rec, _ := doRequest(t, r, http.MethodPost, "/login", `{"username":"alice","password":"pw"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestHandlerImpl_Read(t *testing.T) {
	id := "671f9d0b2c4e5a0012ab34cd"

	t.Run("found strips the password hash", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Read", mock.Anything, id).
			Return(&api.User{ID: id, Username: "alice", Email: "a@example.com", Password: "$2a$10$hash"}, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodGet, "/users/"+id, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Status)
		assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
		mockService.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Read", mock.Anything, id).Return(nil, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodGet, "/users/"+id, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, envelope.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid id maps to 400, not 404", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Read", mock.Anything, "not-an-id").Return(nil, api.ErrInvalidID).Once()

		rec, _ := doRequest(t, r, http.MethodGet, "/users/not-an-id", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("storage failure maps to 500", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Read", mock.Anything, id).
			Return(nil, api.NewStorageError("find", errors.New("down"))).Once()

		rec, _ := doRequest(t, r, http.MethodGet, "/users/"+id, "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestHandlerImpl_Update(t *testing.T) {
	id := "671f9d0b2c4e5a0012ab34cd"

	t.Run("returns previous document", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		prev := &api.User{ID: id, Username: "alice", Email: "old@example.com", Password: "$2a$10$hash"}
		mockService.On("Update", mock.Anything, id, api.User{Username: "alice", Email: "new@example.com", Password: "pw"}).
			Return(prev, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodPut, "/users/"+id,
			`{"username":"alice","email":"new@example.com","password":"pw"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Status)
		assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
		mockService.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Update", mock.Anything, id, mock.Anything).Return(nil, nil).Once()

		rec, _ := doRequest(t, r, http.MethodPut, "/users/"+id, `{"username":"a","email":"e","password":"p"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Update", mock.Anything, "nope", mock.Anything).Return(nil, api.ErrInvalidID).Once()

		rec, _ := doRequest(t, r, http.MethodPut, "/users/nope", `{"username":"a","email":"e","password":"p"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestHandlerImpl_Delete(t *testing.T) {
	id := "671f9d0b2c4e5a0012ab34cd"

	t.Run("deleted", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Delete", mock.Anything, id).Return(&api.User{ID: id}, nil).Once()

		rec, envelope := doRequest(t, r, http.MethodDelete, "/users/"+id, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Delete", mock.Anything, id).Return(nil, nil).Once()

		rec, _ := doRequest(t, r, http.MethodDelete, "/users/"+id, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		r, mockService := setupHandlerTest()
		mockService.On("Delete", mock.Anything, id).
			Return(nil, api.NewStorageError("delete", errors.New("down"))).Once()

		rec, _ := doRequest(t, r, http.MethodDelete, "/users/"+id, "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockService.AssertExpectations(t)
	})
}
