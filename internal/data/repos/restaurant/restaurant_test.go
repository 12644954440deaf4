package restaurant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
)

func TestFeedbackRepoRecentRatingsNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFeedbackRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	rid := uuid.New()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, rating := range []int{1, 2, 3, 4, 5} {
		f := &types.Feedback{RestaurantID: rid, UserID: uuid.New(), Rating: rating, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(dbc, f); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(dbc, &types.Feedback{RestaurantID: rid, UserID: uuid.New(), Rating: 6}); err == nil {
		t.Fatalf("expected out-of-range rating to fail")
	}

	got, err := repo.ListRecentRatings(dbc, rid, 3)
	if err != nil {
		t.Fatalf("ListRecentRatings: %v", err)
	}
	want := []int{5, 4, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestFileRepoScopes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFileRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	rid, convID, otherConv := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mustCreate := func(f *types.File) {
		t.Helper()
		if err := repo.Create(dbc, f); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	mustCreate(&types.File{RestaurantID: rid, StorageScope: types.ScopePermanent, FileName: "handbook.pdf", StoragePath: "r/handbook.pdf", CreatedAt: base})
	for i := 0; i < 7; i++ {
		mustCreate(&types.File{
			RestaurantID:   rid,
			ConversationID: &convID,
			StorageScope:   types.ScopeTemporary,
			FileName:       "invoice.csv",
			StoragePath:    "r/c/invoice.csv",
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		})
	}
	mustCreate(&types.File{RestaurantID: rid, ConversationID: &otherConv, StorageScope: types.ScopeTemporary, FileName: "x.txt", StoragePath: "x", CreatedAt: base})

	perm, err := repo.ListPermanent(dbc, rid)
	if err != nil || len(perm) != 1 {
		t.Fatalf("ListPermanent: %d %v", len(perm), err)
	}
	temp, err := repo.ListTemporary(dbc, rid, convID, 5)
	if err != nil {
		t.Fatalf("ListTemporary: %v", err)
	}
	if len(temp) != 5 {
		t.Fatalf("expected 5 temporary files, got %d", len(temp))
	}
	if !temp[0].CreatedAt.After(temp[4].CreatedAt) {
		t.Fatalf("expected newest first")
	}
}

func TestMembershipAndKnowledge(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	members := NewMembershipRepo(db, log)
	knowledge := NewKnowledgeRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	rid, uid := uuid.New(), uuid.New()
	if err := members.Add(dbc, &types.Member{RestaurantID: rid, UserID: uid}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ok, err := members.IsMember(dbc, rid, uid)
	if err != nil || !ok {
		t.Fatalf("IsMember: %v %v", ok, err)
	}
	ok, err = members.IsMember(dbc, rid, uuid.New())
	if err != nil || ok {
		t.Fatalf("expected non-member: %v %v", ok, err)
	}

	if err := knowledge.Create(dbc, &types.CustomKnowledge{RestaurantID: rid, Title: "Comps", Category: "policy", Content: "Managers only", IsActive: true}); err != nil {
		t.Fatalf("Create active: %v", err)
	}
	inactive := &types.CustomKnowledge{RestaurantID: rid, Title: "Old", Category: "policy", Content: "retired", IsActive: true}
	if err := knowledge.Create(dbc, inactive); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}
	if err := tx.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	rows, err := knowledge.ListActive(dbc, rid)
	if err != nil || len(rows) != 1 || rows[0].Title != "Comps" {
		t.Fatalf("ListActive: %+v %v", rows, err)
	}
}
