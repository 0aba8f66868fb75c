package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliceSignsUpVerifiesAndReadsProfile(t *testing.T) {
	a := newApp(t)
	alice := map[string]string{
		"email": "alice@example.com", "password": "secret1", "first_name": "Alice", "last_name": "Liddell",
	}

	rec, body := a.do(http.MethodPost, "/api/auth/register", "", alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "check your email")
	assert.NotContains(t, body, "token")

	creds := map[string]string{"email": "alice@example.com", "password": "secret1"}
	rec, body = a.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please verify your email before logging in.", body["message"])

	token := a.users.tokenFor("alice@example.com")
	require.NotEmpty(t, token)
	rec, _ = a.do(http.MethodPost, "/api/auth/verify-email", "", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = a.do(http.MethodPost, "/api/auth/verify-email", "", map[string]string{"token": token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])

	session := a.login(t, "alice@example.com", "secret1")

	rec, body = a.do(http.MethodGet, "/api/user/profile", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["first_name"])
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	assert.NotContains(t, rec.Body.String(), token)
}

func TestRegister_Validation(t *testing.T) {
	a := newApp(t)
	rec, body := a.do(http.MethodPost, "/register", "", map[string]string{
		"email": "not-an-email", "password": "123", "first_name": "", "last_name": "L",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "first_name")
	assert.NotContains(t, fields, "last_name")
}

func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	a := newApp(t)
	rec, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": strings.Repeat("p", 80), "first_name": "Carol", "last_name": "C",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	fields := body["errors"].(map[string]any)
	assert.Equal(t, "Password must be at most 72 bytes", fields["password"])

	// multi-byte runes count by bytes: 25 runes of 3 bytes each is 75 bytes
	rec, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": strings.Repeat("€", 25), "first_name": "Carol", "last_name": "C",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": strings.Repeat("p", 72), "first_name": "Carol", "last_name": "C",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister_BlankNamesRejected(t *testing.T) {
	a := newApp(t)
	rec, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "  dave@example.com ", "password": "secret1", "first_name": "   ", "last_name": "\t",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["errors"].(map[string]any)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "last_name")
	assert.NotContains(t, fields, "email")

	rec, body = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "  dave@example.com ", "password": "secret1", "first_name": " Dave ", "last_name": "D",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "dave@example.com", user["email"])
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	a := newApp(t)
	a.users.seed(t, "bob@example.com", "secret1", "Member")

	rec, _ := a.do(http.MethodPost, "/register", "", map[string]string{
		"email": "bob@example.com", "password": "secret1", "first_name": "Bob", "last_name": "B",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	a := newApp(t)
	a.users.seed(t, "alice@example.com", "secret1", "Member")

	rec1, body1 := a.do(http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "wrong1"})
	rec2, body2 := a.do(http.MethodPost, "/login", "", map[string]string{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec1.Code)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.Equal(t, "Invalid credentials", body1["message"])
	assert.Equal(t, body1, body2)

	rec, _ := a.do(http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_ReturnsSummary(t *testing.T) {
	a := newApp(t)
	id := a.users.seed(t, "alice@example.com", "secret1", "Member")

	rec, body := a.do(http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.EqualValues(t, id, user["id"])
	assert.Equal(t, "Test Member", user["name"])
	assert.Equal(t, "Member", user["role"])
	assert.Equal(t, "free", user["plan_tier"])
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
}

func TestProtectedRoute_TokenProblems(t *testing.T) {
	a := newApp(t)

	rec, body := a.do(http.MethodGet, "/api/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token", body["message"])

	rec, body = a.do(http.MethodGet, "/api/goals", " ", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token malformed", body["message"])

	rec, body = a.do(http.MethodGet, "/api/goals", "abc.def.ghi", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token failed or expired", body["message"])
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	a := newApp(t)
	id := a.users.seed(t, "carol@example.com", "secret1", "Member")
	session := a.login(t, "carol@example.com", "secret1")
	require.NoError(t, a.users.Delete(context.Background(), id))

	rec, body := a.do(http.MethodGet, "/api/user/profile", session, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, user no longer exists", body["message"])
}
