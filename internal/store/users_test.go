package store

import (
	"context"
	"testing"

	"github.com/scrapline/scrapline/internal/db"
	"github.com/scrapline/scrapline/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateUser(ctx, database, "alice", "hash", "Alpe Recycling d.o.o.", model.RoleSeller)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Username != "alice" || created.Company != "Alpe Recycling d.o.o." || created.Role != model.RoleSeller {
		t.Errorf("unexpected user: %+v", created)
	}

	byID, err := GetUser(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Errorf("unexpected user by id: %+v", byID)
	}

	byName, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Errorf("unexpected user by name: %+v", byName)
	}
	if byName.PasswordHash != "hash" {
		t.Error("expected password hash available for login")
	}

	missing, err := GetUserByUsername(ctx, database, "nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown username")
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "hash", "", model.RoleBuyer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "alice", "hash2", "", model.RoleSeller); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestUpdateUserPasswordAndRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateUser(ctx, database, "alice", "hash", "", model.RoleBuyer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := UpdateUserPassword(ctx, database, created.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := UpdateUserRole(ctx, database, created.ID, model.RoleSeller); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	got, _ := GetUserByUsername(ctx, database, "alice")
	if got.PasswordHash != "newhash" || got.Role != model.RoleSeller {
		t.Errorf("updates not applied: %+v", got)
	}
}

func TestDeleteUserHidesIt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateUser(ctx, database, "alice", "hash", "", model.RoleBuyer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "bob", "hash", "", model.RoleSeller); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := DeleteUser(ctx, database, created.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	got, err := GetUser(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got != nil {
		t.Error("expected deleted user to be hidden")
	}

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("expected only bob, got %d users", len(users))
	}
}
