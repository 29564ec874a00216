package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/assert/v2"

	"SharedBoard/internal/identity"
)

const secret = "test-secret"

func setupServer(t *testing.T) (*httptest.Server, *identity.Verifier) {
	t.Helper()
	verifier := identity.NewVerifier(secret)
	r := chi.NewRouter()
	NewHandlers(setupStore(t), verifier.Authenticate).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, verifier
}

func TestMetadataOverHTTP(t *testing.T) {
	srv, verifier := setupServer(t)
	ctx := context.Background()
	aliceToken, _ := verifier.Issue(identity.Identity{UserID: "alice", Username: "Alice"})
	bobToken, _ := verifier.Issue(identity.Identity{UserID: "bob", Username: "Bob"})

	alice := NewClient(srv.URL, aliceToken)
	created, err := alice.Create(ctx, "Roadmap")
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", created.OwnerID)

	// anyone, guests included, may read
	guest := NewClient(srv.URL, "")
	got, err := guest.Get(ctx, created.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Roadmap", got.Name)

	_, err = NewClient(srv.URL, bobToken).Rename(ctx, created.ID, "Mine now")
	assert.Equal(t, ErrUnauthorized, err)

	_, err = guest.Create(ctx, "anon")
	assert.Equal(t, ErrUnauthorized, err)

	renamed, err := alice.Rename(ctx, created.ID, "Roadmap 2027")
	assert.Equal(t, nil, err)
	assert.Equal(t, "Roadmap 2027", renamed.Name)

	_, err = guest.Get(ctx, "missing")
	assert.Equal(t, ErrNotFound, err)
}

func TestListAndDeleteOverHTTP(t *testing.T) {
	srv, verifier := setupServer(t)
	ctx := context.Background()
	aliceToken, _ := verifier.Issue(identity.Identity{UserID: "alice", Username: "Alice"})
	bobToken, _ := verifier.Issue(identity.Identity{UserID: "bob", Username: "Bob"})
	alice := NewClient(srv.URL, aliceToken)
	bob := NewClient(srv.URL, bobToken)

	design, _ := alice.Create(ctx, "Design review")
	alice.Create(ctx, "Standup notes")
	bob.Create(ctx, "Bob's design")

	docs, err := alice.List(ctx, "design")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(docs))
	assert.Equal(t, design.ID, docs[0].ID)

	all, _ := alice.List(ctx, "")
	assert.Equal(t, 2, len(all))

	_, err = NewClient(srv.URL, "").List(ctx, "")
	assert.Equal(t, ErrUnauthorized, err)

	assert.Equal(t, ErrUnauthorized, bob.Delete(ctx, design.ID))
	assert.Equal(t, nil, alice.Delete(ctx, design.ID))
	_, err = alice.Get(ctx, design.ID)
	assert.Equal(t, ErrNotFound, err)
}

func TestMalformedBody(t *testing.T) {
	srv, verifier := setupServer(t)
	token, _ := verifier.Issue(identity.Identity{UserID: "alice"})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	assert.Equal(t, nil, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
