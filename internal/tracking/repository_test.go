package tracking

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rumfor/market-tracker/internal/db"
	"github.com/rumfor/market-tracker/internal/market"
)

func testRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d), d
}

func insertMarket(t *testing.T, d *sql.DB, name string) int64 {
	t.Helper()
	m, err := market.NewRepository(d).Insert(&market.Market{
		Name:     name,
		Category: market.CategoryFarmersMarket,
	})
	if err != nil {
		t.Fatalf("insert market: %v", err)
	}
	return m.ID
}

func TestTrackDefaultsToInterested(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Tracked Market")

	tr, err := repo.Track(1, marketID, "")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if tr.Status != StatusInterested {
		t.Errorf("status = %s, want interested", tr.Status)
	}
	if tr.UserID != 1 || tr.MarketID != marketID {
		t.Errorf("tracking keys = (%d, %d)", tr.UserID, tr.MarketID)
	}
}

func TestTrackWithExplicitStatus(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Applied Market")

	tr, err := repo.Track(1, marketID, StatusApplied)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if tr.Status != StatusApplied {
		t.Errorf("status = %s, want applied", tr.Status)
	}
}

func TestTrackDuplicate(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Twice Market")

	if _, err := repo.Track(1, marketID, ""); err != nil {
		t.Fatalf("first track: %v", err)
	}
	if _, err := repo.Track(1, marketID, ""); err == nil {
		t.Fatal("expected error for duplicate tracking")
	}
}

func TestTrackInvalidStatus(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Bad Status Market")

	if _, err := repo.Track(1, marketID, "stalking"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestUntrackRemovesRecord(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Gone Market")

	if _, err := repo.Track(1, marketID, ""); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := repo.Untrack(1, marketID); err != nil {
		t.Fatalf("untrack: %v", err)
	}

	tracked, err := repo.IsTracked(1, marketID)
	if err != nil {
		t.Fatalf("is tracked: %v", err)
	}
	if tracked {
		t.Error("market still tracked after untrack")
	}

	// Untracking again is an error, not a no-op
	if err := repo.Untrack(1, marketID); err == nil {
		t.Fatal("expected error untracking an untracked market")
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Status Market")

	if _, err := repo.Track(1, marketID, ""); err != nil {
		t.Fatalf("track: %v", err)
	}

	for _, status := range []Status{StatusApplied, StatusApproved, StatusAttending, StatusArchived} {
		if err := repo.UpdateStatus(1, marketID, status); err != nil {
			t.Fatalf("update to %s: %v", status, err)
		}
		tr, err := repo.Get(1, marketID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if tr.Status != status {
			t.Errorf("status = %s, want %s", tr.Status, status)
		}
	}

	if err := repo.UpdateStatus(1, marketID, "ghosted"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestAggregates(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Busy Market")

	tr, err := repo.Track(1, marketID, StatusAttending)
	if err != nil {
		t.Fatalf("track: %v", err)
	}

	todo1, err := repo.AddTodo(tr.ID, "Reserve booth")
	if err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if _, err := repo.AddTodo(tr.ID, "Print signage"); err != nil {
		t.Fatalf("add todo: %v", err)
	}
	if err := repo.SetTodoDone(todo1.ID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}

	if _, err := repo.AddExpense(tr.ID, "Booth fee", 7500); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if _, err := repo.AddExpense(tr.ID, "Table rental", 2500); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	got, err := repo.Get(1, marketID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TodoCount != 2 || got.TodoDone != 1 {
		t.Errorf("todos = %d/%d, want 1/2 done", got.TodoDone, got.TodoCount)
	}
	if got.Progress != 0.5 {
		t.Errorf("progress = %f, want 0.5", got.Progress)
	}
	if got.TotalExpenses != 10000 {
		t.Errorf("total expenses = %d, want 10000", got.TotalExpenses)
	}
}

func TestListByUser(t *testing.T) {
	repo, d := testRepo(t)

	m1 := insertMarket(t, d, "First Market")
	m2 := insertMarket(t, d, "Second Market")
	m3 := insertMarket(t, d, "Other User Market")

	if _, err := repo.Track(1, m1, ""); err != nil {
		t.Fatalf("track m1: %v", err)
	}
	if _, err := repo.Track(1, m2, StatusApplied); err != nil {
		t.Fatalf("track m2: %v", err)
	}
	if _, err := repo.Track(2, m3, ""); err != nil {
		t.Fatalf("track m3: %v", err)
	}

	trackings, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trackings) != 2 {
		t.Fatalf("got %d trackings, want 2", len(trackings))
	}
	for _, tr := range trackings {
		if tr.UserID != 1 {
			t.Errorf("tracking for user %d leaked into list", tr.UserID)
		}
	}
}

func TestAddTodoValidation(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Validation Market")

	tr, err := repo.Track(1, marketID, "")
	if err != nil {
		t.Fatalf("track: %v", err)
	}

	if _, err := repo.AddTodo(tr.ID, "   "); err == nil {
		t.Fatal("expected error for blank todo title")
	}
}

func TestAddExpenseValidation(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "Expense Market")

	tr, err := repo.Track(1, marketID, "")
	if err != nil {
		t.Fatalf("track: %v", err)
	}

	if _, err := repo.AddExpense(tr.ID, "", 100); err == nil {
		t.Fatal("expected error for blank description")
	}
	if _, err := repo.AddExpense(tr.ID, "Refund?", -100); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestListTodosAndExpenses(t *testing.T) {
	repo, d := testRepo(t)
	marketID := insertMarket(t, d, "List Market")

	tr, err := repo.Track(1, marketID, "")
	if err != nil {
		t.Fatalf("track: %v", err)
	}

	for _, title := range []string{"one", "two", "three"} {
		if _, err := repo.AddTodo(tr.ID, title); err != nil {
			t.Fatalf("add todo %s: %v", title, err)
		}
	}
	todos, err := repo.ListTodos(tr.ID)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 3 {
		t.Errorf("got %d todos, want 3", len(todos))
	}

	if _, err := repo.AddExpense(tr.ID, "Gas", 1200); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	expenses, err := repo.ListExpenses(tr.ID)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("got %d expenses, want 1", len(expenses))
	}
}
