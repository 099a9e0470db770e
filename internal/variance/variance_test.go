package variance

import (
	"math"
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		collected   float64
		received    float64
		tolerance   float64
		penaltyRate float64
		wantLiters  float64
		wantPct     float64
		wantType    Type
		wantPenalty float64
	}{
		{
			name:      "shortage beyond tolerance",
			collected: 100, received: 90, tolerance: 5, penaltyRate: 2.0,
			wantLiters: -10, wantPct: -10, wantType: TypeShortage,
			// 10L short, 5L tolerated, 5L * 2.0
			wantPenalty: 10.0,
		},
		{
			name:      "shortage within tolerance",
			collected: 100, received: 96, tolerance: 5, penaltyRate: 2.0,
			wantLiters: -4, wantPct: -4, wantType: TypeShortage,
			wantPenalty: 0,
		},
		{
			name:      "shortage exactly at tolerance boundary",
			collected: 100, received: 95, tolerance: 5, penaltyRate: 2.0,
			wantLiters: -5, wantPct: -5, wantType: TypeShortage,
			wantPenalty: 0, // |pct| must exceed tolerance, not equal it
		},
		{
			name:      "excess is never penalized",
			collected: 100, received: 110, tolerance: 5, penaltyRate: 2.0,
			wantLiters: 10, wantPct: 10, wantType: TypeExcess,
			wantPenalty: 0,
		},
		{
			name:      "exact match",
			collected: 50, received: 50, tolerance: 5, penaltyRate: 2.0,
			wantLiters: 0, wantPct: 0, wantType: TypeNone,
			wantPenalty: 0,
		},
		{
			name:      "zero collected treated as zero variance",
			collected: 0, received: 10, tolerance: 5, penaltyRate: 2.0,
			wantLiters: 10, wantPct: 0, wantType: TypeExcess,
			wantPenalty: 0,
		},
		{
			name:      "zero collected and zero received",
			collected: 0, received: 0, tolerance: 5, penaltyRate: 2.0,
			wantLiters: 0, wantPct: 0, wantType: TypeNone,
			wantPenalty: 0,
		},
		{
			name:      "penalty rounded to two decimals",
			collected: 33, received: 30, tolerance: 5, penaltyRate: 1.11,
			wantLiters: -3, wantPct: -9.09, wantType: TypeShortage,
			// (3 - 1.65) * 1.11 = 1.4985 -> 1.5
			wantPenalty: 1.5,
		},
		{
			name:      "zero tolerance penalizes all shortage",
			collected: 100, received: 99, tolerance: 0, penaltyRate: 2.0,
			wantLiters: -1, wantPct: -1, wantType: TypeShortage,
			wantPenalty: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.collected, tt.received, tt.tolerance, tt.penaltyRate)
			if math.Abs(got.VarianceLiters-tt.wantLiters) > 0.001 {
				t.Errorf("VarianceLiters = %v, want %v", got.VarianceLiters, tt.wantLiters)
			}
			if math.Abs(got.VariancePercentage-tt.wantPct) > 0.001 {
				t.Errorf("VariancePercentage = %v, want %v", got.VariancePercentage, tt.wantPct)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if math.Abs(got.PenaltyAmount-tt.wantPenalty) > 0.001 {
				t.Errorf("PenaltyAmount = %v, want %v", got.PenaltyAmount, tt.wantPenalty)
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	inputs := []struct{ c, r, tol, rate float64 }{
		{100, 90, 5, 2.0},
		{77.7, 70.1, 3.3, 1.75},
		{0, 0, 5, 2.0},
		{1234.56, 1200.01, 2.5, 0.9},
	}
	for _, in := range inputs {
		first := Compute(in.c, in.r, in.tol, in.rate)
		for i := 0; i < 10; i++ {
			again := Compute(in.c, in.r, in.tol, in.rate)
			if again != first {
				t.Fatalf("Compute(%v, %v, %v, %v) not deterministic: %+v vs %+v",
					in.c, in.r, in.tol, in.rate, first, again)
			}
		}
	}
}

func TestCompute_PenaltyNeverNegative(t *testing.T) {
	for collected := 0.0; collected <= 200; collected += 7.3 {
		for received := 0.0; received <= 200; received += 11.1 {
			got := Compute(collected, received, 5, 2.0)
			if got.PenaltyAmount < 0 {
				t.Fatalf("negative penalty %v for collected=%v received=%v",
					got.PenaltyAmount, collected, received)
			}
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(2.0267); got != 2.03 {
		t.Errorf("Round2(2.0267) = %v, want 2.03", got)
	}
	if got := Round2(-10.004); got != -10.0 {
		t.Errorf("Round2(-10.004) = %v, want -10.0", got)
	}
}
