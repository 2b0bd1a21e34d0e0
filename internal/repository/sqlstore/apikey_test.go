package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
)

func TestAPIKeyCreate_GeneratesUUID(t *testing.T) {
	_, c := newTestConn(t)

	key := &model.APIKey{Title: "ci"}
	if err := c.APIKeys().Create(context.Background(), key); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if key.Key == uuid.Nil {
		t.Fatal("Create() did not generate a key")
	}
	if key.Key.Version() != 4 {
		t.Errorf("key version = %d, want 4", key.Key.Version())
	}
}

func TestAPIKeyCreate_KeysAreUnique(t *testing.T) {
	_, c := newTestConn(t)

	a := &model.APIKey{Title: "one"}
	b := &model.APIKey{Title: "two"}
	for _, k := range []*model.APIKey{a, b} {
		if err := c.APIKeys().Create(context.Background(), k); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if a.Key == b.Key {
		t.Errorf("two keys share value %s", a.Key)
	}
}

func TestAPIKeyCreate_DuplicateKeyRejected(t *testing.T) {
	_, c := newTestConn(t)

	fixed := uuid.New()
	if err := c.APIKeys().Create(context.Background(), &model.APIKey{Key: fixed, Title: "a"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := c.APIKeys().Create(context.Background(), &model.APIKey{Key: fixed, Title: "b"}); err == nil {
		t.Error("Create() should fail on a duplicate api_key")
	}
}

func TestAPIKeyGetByKey_RoundTrip(t *testing.T) {
	_, c := newTestConn(t)

	// user_id is a soft reference: 12345 does not exist and is stored anyway.
	userID := int64(12345)
	key := &model.APIKey{UserID: &userID, Title: "deploy"}
	if err := c.APIKeys().Create(context.Background(), key); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := c.APIKeys().GetByKey(context.Background(), key.Key)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if found.Key != key.Key || found.Title != "deploy" {
		t.Errorf("GetByKey() = %+v, want %+v", found, key)
	}
	if found.UserID == nil || *found.UserID != userID {
		t.Errorf("UserID = %v, want %d", found.UserID, userID)
	}
}

func TestAPIKeyGetByKey_NullUser(t *testing.T) {
	_, c := newTestConn(t)

	key := &model.APIKey{Title: "orphan"}
	if err := c.APIKeys().Create(context.Background(), key); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := c.APIKeys().GetByKey(context.Background(), key.Key)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if found.UserID != nil {
		t.Errorf("UserID = %d, want nil", *found.UserID)
	}
}

func TestAPIKeyGetByKey_NotFound(t *testing.T) {
	_, c := newTestConn(t)

	_, err := c.APIKeys().GetByKey(context.Background(), uuid.New())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByKey() error = %v, want ErrNotFound", err)
	}
}
