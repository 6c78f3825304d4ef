package kit

import (
	"context"
	"errors"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "abc123")
	ctx = WithUserID(ctx, "u1")
	ctx = WithRemoteAddr(ctx, "10.0.0.1:5000")

	if got := GetTraceID(ctx); got != "abc123" {
		t.Errorf("trace id: got %q", got)
	}
	if got := GetUserID(ctx); got != "u1" {
		t.Errorf("user id: got %q", got)
	}
	if got := GetRemoteAddr(ctx); got != "10.0.0.1:5000" {
		t.Errorf("remote addr: got %q", got)
	}
	if got := GetTransport(ctx); got != "http" {
		t.Errorf("transport default: got %q, want http", got)
	}
}
