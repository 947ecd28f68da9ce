package jsonld

import (
	"errors"
	"testing"

	"github.com/gofhir/jsonld/node"
)

func TestResult_OK(t *testing.T) {
	var nilResult *Result
	if nilResult.OK() {
		t.Error("nil result should not be OK")
	}

	r := &Result{Graph: node.NewGraph()}
	if !r.OK() {
		t.Error("result without error should be OK")
	}
	if r.ErrorCode() != "" {
		t.Errorf("ErrorCode() = %q; want empty", r.ErrorCode())
	}
}

func TestResult_ErrorCode(t *testing.T) {
	r := &Result{Err: NewError(CodeInvalidValueObject, "bad")}
	if r.OK() {
		t.Error("failed result should not be OK")
	}
	if r.ErrorCode() != CodeInvalidValueObject {
		t.Errorf("ErrorCode() = %q; want %q", r.ErrorCode(), CodeInvalidValueObject)
	}

	foreign := &Result{Err: errors.New("read failed")}
	if foreign.ErrorCode() != "" {
		t.Errorf("foreign ErrorCode() = %q; want empty", foreign.ErrorCode())
	}
}

func TestSummarize(t *testing.T) {
	b := node.NewBuilder()
	b.SetID("https://example.org/a")
	n, _ := b.Build()

	results := []*Result{
		{Index: 0, Graph: node.NewGraph(node.NodeObject(n), node.NodeObject(n))},
		{Index: 1, Graph: node.NewGraph()},
		{Index: 2, Err: Cancelled(nil)},
	}

	s := Summarize(results)
	if s.Total != 3 || s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("Summarize = %+v", s)
	}
	if s.Objects != 2 {
		t.Errorf("Objects = %d; want 2", s.Objects)
	}
}
