package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestSinaSymbol(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"600036", "sh600036"},
		{"510300", "sh510300"},
		{"900901", "sh900901"},
		{"000001", "sz000001"},
		{"300750", "sz300750"},
		{"159915", "sz159915"},
		{"200011", "sz200011"},
		{"430047", "bj430047"},
		{"830799", "bj830799"},
	}
	for _, c := range cases {
		if got := SinaSymbol(c.code); got != c.want {
			t.Errorf("SinaSymbol(%s) = %s, 期望 %s", c.code, got, c.want)
		}
	}
}

func TestParseSinaQuote(t *testing.T) {
	data := `var hq_str_sh600036="招商银行,34.100,34.000,34.560,34.800,33.900,34.550,34.560,12345678,425678901.000";`
	q, err := parseSinaQuote(data, "600036")
	if err != nil {
		t.Fatalf("parseSinaQuote: %v", err)
	}
	if q.Name != "招商银行" {
		t.Errorf("Name = %q", q.Name)
	}
	if q.Price != 34.56 {
		t.Errorf("Price = %v, 期望 34.56", q.Price)
	}
	if q.PrevClose != 34.0 {
		t.Errorf("PrevClose = %v, 期望 34.0", q.PrevClose)
	}
}

func TestParseSinaQuoteInvalid(t *testing.T) {
	// 停牌或代码无效时价格为0
	if _, err := parseSinaQuote(`var hq_str_sh600000="浦发银行,0.000,0.000,0.000";`, "600000"); err == nil {
		t.Error("价格为0应报错")
	}
	if _, err := parseSinaQuote("garbage", "600000"); err == nil {
		t.Error("格式异常应报错")
	}
}

func TestFetchQuoteDecodesGBK(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes(
		[]byte(`var hq_str_sh510300="沪深300ETF,3.900,3.880,3.912,3.950,3.870";`))
	if err != nil {
		t.Fatalf("编码测试数据失败: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk)
	}))
	defer srv.Close()

	a := NewSinaAdapter(time.Second, WithEndpoints(srv.URL, ""), WithRetry(1, 0))
	q, err := a.FetchQuote(context.Background(), "510300")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if q.Name != "沪深300ETF" {
		t.Errorf("Name = %q, GBK解码失败", q.Name)
	}
	if q.Price != 3.912 {
		t.Errorf("Price = %v", q.Price)
	}
}

func TestFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"day":"2024-03-04","open":"34.0","high":"34.5","low":"33.8","close":"34.20","volume":"100"},
			{"day":"2024-03-05","open":"34.2","high":"34.8","low":"34.0","close":"34.50","volume":"120"}]`))
	}))
	defer srv.Close()

	a := NewSinaAdapter(time.Second, WithEndpoints("", srv.URL), WithRetry(1, 0))
	bars, err := a.FetchHistory(context.Background(), "600036", 2)
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d", len(bars))
	}
	if bars[0].Close != 34.2 || bars[1].Close != 34.5 {
		t.Errorf("收盘价解析错误: %+v", bars)
	}
	if bars[1].Date.Format("2006-01-02") != "2024-03-05" {
		t.Errorf("日期解析错误: %v", bars[1].Date)
	}
}

func TestFetchHistoryRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewSinaAdapter(time.Second, WithEndpoints("", srv.URL), WithRetry(3, time.Millisecond))
	if _, err := a.FetchHistory(context.Background(), "600036", 10); err == nil {
		t.Fatal("持续502应最终报错")
	}
	if calls != 3 {
		t.Errorf("应重试3次, 实际请求 %d 次", calls)
	}
}
