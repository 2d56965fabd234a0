package memory

import (
	"context"
	"fmt"
	"testing"

	"finsight/internal/domain/entity"
)

func TestQueryResultRepo_SaveAndListRecent(t *testing.T) {
	repo := NewQueryResultRepo(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Save(ctx, &entity.QueryResult{
			Answer:  fmt.Sprintf("answer %d", i),
			Success: true,
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Answer != "answer 2" || got[1].Answer != "answer 1" {
		t.Errorf("results not in most-recent-first order: %q, %q", got[0].Answer, got[1].Answer)
	}
}

func TestQueryResultRepo_BoundedCapacity(t *testing.T) {
	repo := NewQueryResultRepo(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Save(ctx, &entity.QueryResult{Answer: fmt.Sprintf("answer %d", i)})
	}

	got, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want capacity 3", len(got))
	}
	if got[0].Answer != "answer 4" {
		t.Errorf("newest = %q, want answer 4", got[0].Answer)
	}
	if got[2].Answer != "answer 2" {
		t.Errorf("oldest kept = %q, want answer 2", got[2].Answer)
	}
}

func TestQueryResultRepo_CountDegraded(t *testing.T) {
	repo := NewQueryResultRepo(10)
	ctx := context.Background()

	repo.Save(ctx, &entity.QueryResult{Degraded: true})
	repo.Save(ctx, &entity.QueryResult{Degraded: false})
	repo.Save(ctx, &entity.QueryResult{Degraded: true})

	n, err := repo.CountDegraded(ctx)
	if err != nil {
		t.Fatalf("CountDegraded: %v", err)
	}
	if n != 2 {
		t.Errorf("degraded count = %d, want 2", n)
	}
}

func TestQueryResultRepo_RejectsNil(t *testing.T) {
	repo := NewQueryResultRepo(10)
	if err := repo.Save(context.Background(), nil); err == nil {
		t.Error("expected error for nil result")
	}
}
