package importer

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/planledger/internal/domain"
	"github.com/rpattn/planledger/internal/repository"
)

type stubExpenseRepo struct {
	lines []domain.ExpenseLine
}

func (s *stubExpenseRepo) ListActive(ctx context.Context) ([]domain.ExpenseLine, error) {
	return append([]domain.ExpenseLine(nil), s.lines...), nil
}

func (s *stubExpenseRepo) InsertTx(ctx context.Context, tx pgx.Tx, line domain.ExpenseLine) error {
	s.lines = append(s.lines, line)
	return nil
}

type stubTxRunner struct {
	began int
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	s.began++
	return fn(nil)
}

var _ repository.ExpenseLineRepository = (*stubExpenseRepo)(nil)
var _ repository.TxRunner = (*stubTxRunner)(nil)

const fourRowCSV = `scenario_id,service_id,name,expense_type,status,amount,start_date,frequency,day_of_month
scn-1,svc-1,Hosting,recurring,planned,100.00,2026-01-01,monthly,1
scn-1,svc-1,Bad Amount,recurring,planned,abc,2026-01-01,monthly,1
scn-1,svc-1,No Type,,planned,50.00,2026-01-01,,
scn-1,svc-1,Hosting,recurring,planned,100.00,2026-01-01,monthly,1
`

func expenseOptions(t *testing.T, csv string) ExpenseOptions {
	t.Helper()
	return ExpenseOptions{
		FilePath:          writeTempFile(t, "expenses.csv", csv),
		TemplateStorePath: filepath.Join(t.TempDir(), "templates.json"),
	}
}

func TestExpensePreviewFourRowScenario(t *testing.T) {
	service := NewExpenseService(&stubExpenseRepo{}, &stubTxRunner{})

	result, err := service.Preview(context.Background(), expenseOptions(t, fourRowCSV))
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}

	if result.TotalRows != 4 {
		t.Fatalf("expected 4 total rows, got %d", result.TotalRows)
	}
	if result.AcceptedCount != 1 {
		t.Fatalf("expected 1 accepted row, got %d", result.AcceptedCount)
	}
	if result.RejectedCount != 3 {
		t.Fatalf("expected 3 rejected rows, got %d", result.RejectedCount)
	}
	if result.DuplicateCount != 1 {
		t.Fatalf("expected 1 duplicate, got %d", result.DuplicateCount)
	}

	accepted := result.Accepted[0]
	if accepted.RowNumber != 2 {
		t.Fatalf("expected first data row (row 2) accepted, got %d", accepted.RowNumber)
	}
	if accepted.AmountMinor != 10000 || accepted.Recurrence == nil {
		t.Fatalf("unexpected accepted row: %+v", accepted)
	}

	dupFound := false
	for _, rowErr := range result.Errors {
		if rowErr.Code == domain.RowErrorDuplicate {
			dupFound = true
			if rowErr.Field != "row" || rowErr.RowNumber != 5 {
				t.Fatalf("unexpected duplicate error: %+v", rowErr)
			}
		}
	}
	if !dupFound {
		t.Fatal("expected a duplicate error in the list")
	}
}

func TestExpensePreviewPurity(t *testing.T) {
	service := NewExpenseService(&stubExpenseRepo{}, &stubTxRunner{})
	opts := expenseOptions(t, fourRowCSV)

	first, err := service.Preview(context.Background(), opts)
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	second, err := service.Preview(context.Background(), opts)
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("previews differ:\n%+v\n%+v", first, second)
	}
}

func TestExpenseCommitIdempotent(t *testing.T) {
	csv := `scenario_id,service_id,name,expense_type,status,amount,start_date
scn-1,svc-1,One Off,one_time,approved,150.00,2026-02-01
`
	repo := &stubExpenseRepo{}
	runner := &stubTxRunner{}
	service := NewExpenseService(repo, runner)
	opts := expenseOptions(t, csv)

	first, err := service.Commit(context.Background(), opts)
	if err != nil {
		t.Fatalf("first commit returned error: %v", err)
	}
	if first.InsertedCount != 1 || first.DuplicateCount != 0 {
		t.Fatalf("unexpected first commit: %+v", first)
	}

	second, err := service.Commit(context.Background(), opts)
	if err != nil {
		t.Fatalf("second commit returned error: %v", err)
	}
	if second.InsertedCount != 0 || second.DuplicateCount != 1 || second.SkippedDuplicateCount != 1 {
		t.Fatalf("unexpected second commit: inserted=%d duplicates=%d skipped=%d",
			second.InsertedCount, second.DuplicateCount, second.SkippedDuplicateCount)
	}
	if len(repo.lines) != 1 {
		t.Fatalf("persisted row count should stay at 1, got %d", len(repo.lines))
	}
	if runner.began != 1 {
		t.Fatalf("second commit should open no transaction, began=%d", runner.began)
	}
}

func TestExpenseCommitEmptyAcceptedOpensNoTransaction(t *testing.T) {
	csv := `scenario_id,service_id,name,expense_type,status,amount,start_date
scn-1,svc-1,Bad,one_time,approved,abc,2026-02-01
`
	runner := &stubTxRunner{}
	service := NewExpenseService(&stubExpenseRepo{}, runner)

	result, err := service.Commit(context.Background(), expenseOptions(t, csv))
	if err != nil {
		t.Fatalf("commit returned error: %v", err)
	}
	if result.InsertedCount != 0 || runner.began != 0 {
		t.Fatalf("expected no inserts and no transaction, got %+v began=%d", result, runner.began)
	}
}

type flakyExpenseRepo struct {
	stubExpenseRepo
	failAfter int
	inserts   int
}

func (f *flakyExpenseRepo) InsertTx(ctx context.Context, tx pgx.Tx, line domain.ExpenseLine) error {
	f.inserts++
	if f.inserts > f.failAfter {
		return errors.New("insert failed")
	}
	return f.stubExpenseRepo.InsertTx(ctx, tx, line)
}

// rollbackTxRunner restores the repo on error the way a real transaction
// rollback would.
type rollbackTxRunner struct {
	repo *flakyExpenseRepo
}

func (r *rollbackTxRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	snapshot := append([]domain.ExpenseLine(nil), r.repo.lines...)
	if err := fn(nil); err != nil {
		r.repo.lines = snapshot
		return err
	}
	return nil
}

func TestExpenseCommitRollsBackWholeBatch(t *testing.T) {
	csv := `scenario_id,service_id,name,expense_type,status,amount,start_date
scn-1,svc-1,First,one_time,approved,10.00,2026-02-01
scn-1,svc-1,Second,one_time,approved,20.00,2026-02-01
`
	repo := &flakyExpenseRepo{failAfter: 1}
	service := NewExpenseService(repo, &rollbackTxRunner{repo: repo})

	_, err := service.Commit(context.Background(), expenseOptions(t, csv))
	if err == nil {
		t.Fatal("expected commit to fail")
	}
	if len(repo.lines) != 0 {
		t.Fatalf("partial inserts must not survive, got %d rows", len(repo.lines))
	}
}
