package saga

import (
	"context"
	"errors"
	"testing"
)

func TestRunAllStepsSucceed(t *testing.T) {
	var order []string
	var s Saga
	for _, name := range []string{"one", "two", "three"} {
		name := name
		s.Add(Step{
			Name:       name,
			Run:        func(context.Context) error { order = append(order, name); return nil },
			Compensate: func(context.Context) error { order = append(order, "undo "+name); return nil },
		})
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != "one" || order[2] != "three" {
		t.Fatalf("steps must run in order with no compensation, got %v", order)
	}
}

func TestRunCompensatesInReverse(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	var s Saga
	s.Add(Step{
		Name:       "first",
		Run:        func(context.Context) error { order = append(order, "first"); return nil },
		Compensate: func(context.Context) error { order = append(order, "undo first"); return nil },
	})
	s.Add(Step{
		Name:       "second",
		Run:        func(context.Context) error { order = append(order, "second"); return nil },
		Compensate: func(context.Context) error { order = append(order, "undo second"); return nil },
	})
	s.Add(Step{
		Name: "third",
		Run:  func(context.Context) error { return boom },
	})

	err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the causing error, got %v", err)
	}
	want := []string{"first", "second", "undo second", "undo first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestRunCompensationErrorDoesNotMask(t *testing.T) {
	boom := errors.New("boom")
	var s Saga
	s.Add(Step{
		Name:       "create",
		Run:        func(context.Context) error { return nil },
		Compensate: func(context.Context) error { return errors.New("rollback failed") },
	})
	s.Add(Step{
		Name: "link",
		Run:  func(context.Context) error { return boom },
	})

	if err := s.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("compensation failure must not mask the causing error, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	var s Saga
	s.Add(Step{
		Name: "first",
		Run: func(context.Context) error {
			ran = append(ran, "first")
			cancel()
			return nil
		},
		Compensate: func(context.Context) error { ran = append(ran, "undo first"); return nil },
	})
	s.Add(Step{
		Name: "second",
		Run:  func(context.Context) error { ran = append(ran, "second"); return nil },
	})

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	// The second step never starts, and the first is rolled back.
	want := []string{"first", "undo first"}
	if len(ran) != len(want) || ran[0] != want[0] || ran[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, ran)
	}
}

func TestRunNilCompensateSkipped(t *testing.T) {
	var s Saga
	s.Add(Step{Name: "mark", Run: func(context.Context) error { return nil }})
	s.Add(Step{Name: "fail", Run: func(context.Context) error { return errors.New("nope") }})
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
