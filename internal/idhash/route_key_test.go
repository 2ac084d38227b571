package idhash

import (
	"testing"

	"chain-gateway/internal/domain"
)

func testRequest() domain.RouteRequest {
	return domain.RouteRequest{
		TokenIn:    "WETH",
		TokenOut:   "USDC",
		AmountIn:   domain.MustAmount("1000"),
		ChainInID:  1,
		ChainOutID: 137,
		Slippage:   0.5,
	}
}

func TestRouteRequestKey(t *testing.T) {
	got := RouteRequestKey(testRequest())

	if len(got) != 64 {
		t.Errorf("RouteRequestKey() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	for i := 0; i < 10; i++ {
		if again := RouteRequestKey(testRequest()); again != got {
			t.Fatalf("RouteRequestKey() not deterministic: %s != %s", got, again)
		}
	}
}

func TestRouteRequestKey_Normalization(t *testing.T) {
	base := RouteRequestKey(testRequest())

	lower := testRequest()
	lower.TokenIn = "weth"
	lower.TokenOut = "usdc"
	if RouteRequestKey(lower) != base {
		t.Error("expected token casing to be ignored")
	}

	padded := testRequest()
	padded.AmountIn = domain.MustAmount("1000.000")
	if RouteRequestKey(padded) != base {
		t.Error("expected trailing zeros in amount to be ignored")
	}
}

func TestRouteRequestKey_DifferentInputs(t *testing.T) {
	base := RouteRequestKey(testRequest())

	variants := map[string]func(*domain.RouteRequest){
		"amount":    func(r *domain.RouteRequest) { r.AmountIn = domain.MustAmount("1001") },
		"chain in":  func(r *domain.RouteRequest) { r.ChainInID = 56 },
		"chain out": func(r *domain.RouteRequest) { r.ChainOutID = 1 },
		"slippage":  func(r *domain.RouteRequest) { r.Slippage = 1 },
		"token out": func(r *domain.RouteRequest) { r.TokenOut = "DAI" },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			req := testRequest()
			mutate(&req)
			if RouteRequestKey(req) == base {
				t.Errorf("expected different key when %s changes", name)
			}
		})
	}
}
