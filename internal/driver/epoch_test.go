package driver

import (
	"testing"

	"github.com/rosscartlidge/explaindf/internal/ccmodel"
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

func TestEpochStepReportsMustSets(t *testing.T) {
	e := NewEpoch(ccmodel.Compute, []string{"graph", "label"}, nil, nil)
	e.AddInput("graph", 0, 1, 1)
	e.AddInput("label", 0, 10, 1)
	e.AddInput("label", 1, 5, 1)
	e.AddQuery(0, 5, dataflow.MaxTimestamp, 0, 1)

	must, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(must["graph"]) == 0 {
		t.Error("expected a non-empty graph must set for a satisfiable query")
	}
	if e.EpochNum() != 1 {
		t.Errorf("EpochNum() = %d, want 1 after one Step", e.EpochNum())
	}
}

func TestEpochWaitUntilStopsOncePastTarget(t *testing.T) {
	e := NewEpoch(ccmodel.Compute, []string{"graph", "label"}, nil, nil)
	e.AddInput("graph", 0, 1, 1)
	e.AddInput("label", 0, 1, 1)
	e.AddInput("label", 1, 1, 1)
	e.AddQuery(0, 1, dataflow.MaxTimestamp, 0, 1)
	e.Advance()

	steps := 0
	err := e.WaitUntil(dataflow.Timestamp{Epoch: 1}, func() error {
		steps++
		_, err := e.Step()
		return err
	})
	if err != nil {
		t.Fatalf("WaitUntil: %v", err)
	}
	if steps != 1 {
		t.Errorf("expected exactly 1 step to cross epoch 1's frontier, got %d", steps)
	}
}
