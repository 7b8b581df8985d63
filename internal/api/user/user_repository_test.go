package user

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

func TestDocumentRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		user api.User
	}{
		{"plain", api.User{Username: "alice", Email: "alice@example.com", Password: "$2a$10$somehash"}},
		{"empty fields are opaque text", api.User{}},
		{"unicode and whitespace preserved", api.User{Username: "  анна  ", Email: "АННА@пример.рф", Password: "pä55\tword"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := toDocument(tc.user)
			got, err := fromDocument(doc)
			require.NoError(t, err)

			// Round-trip law over the declared schema; no id exists pre-insert
			assert.Equal(t, tc.user.Username, got.Username)
			assert.Equal(t, tc.user.Email, got.Email)
			assert.Equal(t, tc.user.Password, got.Password)
			assert.Empty(t, got.ID)
		})
	}
}

func TestToDocumentIsLossless(t *testing.T) {
	doc := toDocument(api.User{Username: "alice", Email: "a@example.com", Password: "hash"})
	assert.Len(t, doc, 3)
	assert.Equal(t, "alice", doc["username"])
	assert.Equal(t, "a@example.com", doc["email"])
	assert.Equal(t, "hash", doc["password"])
}

func TestFromDocument(t *testing.T) {
	t.Run("maps store-assigned id to hex", func(t *testing.T) {
		oid := primitive.NewObjectID()
		u, err := fromDocument(map[string]any{
			"_id":      oid,
			"username": "alice",
			"email":    "a@example.com",
			"password": "hash",
		})
		require.NoError(t, err)
		assert.Equal(t, oid.Hex(), u.ID)
	})

	t.Run("ignores unknown extra fields", func(t *testing.T) {
		u, err := fromDocument(map[string]any{
			"username":   "alice",
			"email":      "a@example.com",
			"password":   "hash",
			"avatar_url": "https://example.com/a.png",
			"version":    int32(7),
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := fromDocument(map[string]any{
			"username": "alice",
			"password": "hash",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrDecode))
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := fromDocument(map[string]any{
			"username": "alice",
			"email":    "a@example.com",
			"password": int64(12345),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrDecode))
	})
}

func TestParseID(t *testing.T) {
	t.Run("valid hex object id", func(t *testing.T) {
		oid := primitive.NewObjectID()
		got, err := parseID(oid.Hex())
		require.NoError(t, err)
		assert.Equal(t, oid, got)
	})

	t.Run("malformed id fails before any store round-trip", func(t *testing.T) {
		for _, id := range []string{"not-an-id", "", "671f9d0b2c4e5a0012ab34c", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
			_, err := parseID(id)
			require.Error(t, err, "id %q", id)
			assert.True(t, errors.Is(err, api.ErrInvalidID))
		}
	})
}
