package indicator

import (
	"errors"
	"math"
	"testing"
)

func TestRSIWilderSmoothing(t *testing.T) {
	// 手算用例: period=2
	// 差值 +1, -0.5, +1
	// 初始均值: avgGain=0.5, avgLoss=0.25
	// 递推后: avgGain=0.75, avgLoss=0.125, RS=6, RSI=100-100/7
	prices := []float64{10, 11, 10.5, 11.5}
	got, err := RSI(prices, 2)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	want := 100 - 100.0/7
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RSI = %v, 期望 %v", got, want)
	}
}

func TestRSIAllGains(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	got, err := RSI(prices, 6)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if got != 100 {
		t.Errorf("单边上涨 RSI = %v, 期望恰好100", got)
	}
}

func TestRSIAllLosses(t *testing.T) {
	prices := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	got, err := RSI(prices, 6)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if got != 0 {
		t.Errorf("单边下跌 RSI = %v, 期望0", got)
	}
}

func TestRSIBounded(t *testing.T) {
	prices := []float64{30, 31.5, 29.8, 30.2, 28.9, 29.5, 31.1, 30.7, 32.4, 31.9, 33.0, 32.2}
	got, err := RSI(prices, 6)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if got < 0 || got > 100 {
		t.Errorf("RSI = %v, 超出[0,100]", got)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}
	if _, err := RSI(prices, 6); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("6个价格算period=6应返回ErrInsufficientData, 实际 %v", err)
	}
	// 刚好够
	if _, err := RSI(append(prices, 7), 6); err != nil {
		t.Errorf("7个价格算period=6不应报错: %v", err)
	}
}

func TestRSIInvalidPeriod(t *testing.T) {
	if _, err := RSI([]float64{1, 2, 3}, 0); err == nil {
		t.Error("period=0应报错")
	}
}
