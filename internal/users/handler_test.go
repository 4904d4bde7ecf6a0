package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/almacen-pos/almacen/internal/shared"
	"github.com/almacen-pos/almacen/internal/users"
	_ "github.com/almacen-pos/almacen/testing"
)

type stubRepo struct {
	mu    sync.Mutex
	users map[string]users.User
}

func (s *stubRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Name]; ok {
		return users.User{}, shared.ErrDuplicate
	}
	u.ID = int64(len(s.users) + 1)
	s.users[u.Name] = u
	return u, nil
}

func (s *stubRepo) FindByName(ctx context.Context, name string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[name]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func newRouter(repo *stubRepo) http.Handler {
	svc := users.NewService(repo)
	svc.WithHashCost(bcrypt.MinCost)
	r := chi.NewRouter()
	r.Route("/api/users", users.NewHandler(nil, svc).MountRoutes)
	return r
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	repo := &stubRepo{users: map[string]users.User{}}
	router := newRouter(repo)

	rec := post(router, "/api/users/register", `{"name":"ana","direccion":"Calle 1","password":"secreto"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"id":1,"name":"ana","direccion":"Calle 1","role":"user"}`, rec.Body.String())
	require.NotEqual(t, "secreto", repo.users["ana"].PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["ana"].PasswordHash), []byte("secreto")))

	rec = post(router, "/api/users/register", `{"name":"ana","direccion":"Calle 2","password":"otro"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"error":"Usuario ya existe"}`, rec.Body.String())

	rec = post(router, "/api/users/login", `{"name":"ana","password":"secreto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":1,"name":"ana","direccion":"Calle 1","role":"user"}`, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "password")

	rec = post(router, "/api/users/login", `{"name":"ana","password":"mal"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Credenciales inválidas"}`, rec.Body.String())

	rec = post(router, "/api/users/login", `{"name":"nadie","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	router := newRouter(&stubRepo{users: map[string]users.User{}})

	for _, body := range []string{`{}`, `{"name":"ana","password":"x"}`, `{"name":" ","direccion":"d","password":"x"}`, `{`} {
		rec := post(router, "/api/users/register", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.JSONEq(t, `{"error":"Faltan campos"}`, rec.Body.String(), body)
	}
}
