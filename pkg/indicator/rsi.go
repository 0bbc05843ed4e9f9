package indicator

import (
	"errors"
	"fmt"
)

// ErrInsufficientData 价格样本少于 period+1，无法计算RSI
var ErrInsufficientData = errors.New("价格数据不足")

// RSI 计算Wilder平滑RSI，prices按时间升序排列（最旧在前）
// 首个平均涨/跌幅为前period个差值的简单均值，
// 之后按 avg = (avg_prev*(period-1) + current) / period 递推。
// 平均跌幅为0时定义RSI=100，返回值始终落在[0,100]。
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("非法的RSI周期: %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("%w: 需要至少%d个价格, 实际%d个", ErrInsufficientData, period+1, len(prices))
	}

	// 拆分涨跌
	deltas := len(prices) - 1
	gains := make([]float64, deltas)
	losses := make([]float64, deltas)
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	// 初始均值取前period个差值的简单平均
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder递推
	for i := period; i < deltas; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
