package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iwvelando/loan-compare/internal/cache"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"go.uber.org/zap"
)

func sampleRequest() Request {
	return Request{FinanceOptions: []Offer{
		{
			SourceName: "Lender B",
			LoanInput: loans.LoanInput{
				LoanAmount:             10000,
				AnnualInterestRatePct:  24,
				InsuranceAmount:        loans.Float(250),
				SecurityDeposit:        1000,
				MonthlyRepaymentAmount: loans.Float(2601.19),
				LoanTermMonths:         6,
				CanRenew:               true,
				LoanRenewalFixedCost:   loans.Float(100),
				ExtraLoanCosts:         []loans.ExtraCost{{Name: "Legal", Amount: 0.1}, {Name: "Stamp", Amount: 0.2}},
			},
		},
		{
			SourceName: "Bank A",
			LoanInput: loans.LoanInput{
				LoanAmount:               50000,
				AnnualInterestRatePct:    20,
				InsuranceAmount:          loans.Float(1000),
				LoanTermMonths:           6,
				LoanAmountPaidAtTermEnd:  true,
				SecurityDepositRepayable: true,
			},
		},
	}}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(sampleRequest())
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}

	for _, want := range []string{
		"Option 1:",
		"- Finance Source: Lender B",
		"- Annual Interest Rate: 24%",
		"- Insurance Rate Percentage: N/A",
		"- Insurance Amount: 250 (paid upfront annually)",
		"- Extra Loan Costs (total 0.30):",
		"  - Legal: 0.1",
		"- Loan Renewal Cost: N100.00",
		"Option 2:",
		"- Finance Source: Bank A",
		"- No Extra Loan Costs",
		"- Cost Of Finance: N6000.00",
		"less than 12 months",
		"opportunity cost",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q\n%s", want, prompt)
		}
	}
}

func TestBuildPromptUsesSuppliedTerms(t *testing.T) {
	req := sampleRequest()
	req.FinanceOptions[1].LoanTerms = &loans.LoanResult{CostOfFinance: "N1.23"}

	prompt, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "- Cost Of Finance: N1.23") {
		t.Errorf("expected the supplied loan terms to be used\n%s", prompt)
	}
}

func TestBuildPromptRequiresOptions(t *testing.T) {
	if _, err := BuildPrompt(Request{}); !errors.Is(err, ErrNoOptions) {
		t.Errorf("BuildPrompt() error = %v, expected ErrNoOptions", err)
	}
}

func TestExtraCostsTotalIsExact(t *testing.T) {
	total := ExtraCostsTotal([]loans.ExtraCost{{Amount: 0.1}, {Amount: 0.2}})
	if total.String() != "0.3" {
		t.Errorf("ExtraCostsTotal() = %s, expected 0.3", total.String())
	}
}

func TestStaticGenerator(t *testing.T) {
	resp, err := StaticGenerator{}.Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	report := resp.ComparativeReport
	lender := strings.Index(report, "Lender B")
	bank := strings.Index(report, "Bank A")
	if lender < 0 || bank < 0 {
		t.Fatalf("expected both options in the report:\n%s", report)
	}
	if lender > bank {
		t.Errorf("expected the cheaper option first:\n%s", report)
	}
	for _, want := range []string{"cost of finance N6000.00", "renewal N100.00", "extra costs N0.30", "Recommendation: Lender B"} {
		if !strings.Contains(report, want) {
			t.Errorf("expected report to contain %q\n%s", want, report)
		}
	}

	if _, err := (StaticGenerator{}).Generate(context.Background(), Request{}); !errors.Is(err, ErrNoOptions) {
		t.Errorf("expected ErrNoOptions, got %v", err)
	}
}

func newProvider(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIGenerator(config.ReportConfig{
		APIURL:  server.URL,
		APIKey:  "sk-test",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestOpenAIGenerator(t *testing.T) {
	generator := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body.Model != "test-model" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected request body: %+v", body)
		}
		if !strings.Contains(body.Messages[1].Content, "Finance Source: Bank A") {
			t.Errorf("expected the prompt in the user message")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Bank A is best."}}]}`))
	})

	resp, err := generator.Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.ComparativeReport != "Bank A is best." {
		t.Errorf("unexpected report %q", resp.ComparativeReport)
	}
}

func TestOpenAIGeneratorErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		exact   bool
	}{
		{"Provider message", http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`, "quota exceeded", true},
		{"Raw body", http.StatusInternalServerError, "upstream broke", "upstream broke", true},
		{"Empty body", http.StatusBadGateway, "", "report provider returned status 502", true},
		{"No choices", http.StatusOK, `{"choices":[]}`, "no report", false},
		{"Bad JSON", http.StatusOK, `{`, "decode", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := generator.Generate(context.Background(), sampleRequest())
			if err == nil {
				t.Fatalf("Generate() expected error %q", tt.wantErr)
			}
			if tt.exact && err.Error() != tt.wantErr {
				t.Errorf("Generate() error = %q, expected exactly %q", err.Error(), tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Generate() error = %v, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAIGeneratorHonoursContext(t *testing.T) {
	generator := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := generator.Generate(ctx, sampleRequest()); err == nil {
		t.Fatal("expected an error once the context expires")
	}
}

type stubGenerator struct {
	calls int32
	fail  int32
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if n <= s.fail {
		return Response{}, s.err
	}
	return Response{ComparativeReport: "report"}, nil
}

func TestRetryingGenerator(t *testing.T) {
	stub := &stubGenerator{fail: 2, err: errors.New("temporarily unavailable")}
	generator := NewRetryingGenerator(stub, 3, time.Millisecond, zap.NewNop())

	resp, err := generator.Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.ComparativeReport != "report" || stub.calls != 3 {
		t.Errorf("expected success on the third call, got %q after %d calls", resp.ComparativeReport, stub.calls)
	}
}

func TestRetryingGeneratorReturnsLastError(t *testing.T) {
	stub := &stubGenerator{fail: 10, err: errors.New("quota exceeded")}
	generator := NewRetryingGenerator(stub, 2, time.Millisecond, nil)

	_, err := generator.Generate(context.Background(), sampleRequest())
	if err == nil || err.Error() != "quota exceeded" {
		t.Errorf("Generate() error = %v, expected the provider message unchanged", err)
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", stub.calls)
	}
}

func TestRetryingGeneratorStopsOnCancel(t *testing.T) {
	stub := &stubGenerator{fail: 10, err: errors.New("down")}
	generator := NewRetryingGenerator(stub, 5, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := generator.Generate(ctx, sampleRequest()); err == nil {
		t.Fatal("expected an error")
	}
	if stub.calls != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", stub.calls)
	}
}

func TestCachedGenerator(t *testing.T) {
	stub := &stubGenerator{}
	generator := NewCachedGenerator(stub, cache.NewMemory(time.Minute), zap.NewNop())

	for i := 0; i < 3; i++ {
		resp, err := generator.Generate(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if resp.ComparativeReport != "report" {
			t.Errorf("unexpected report %q", resp.ComparativeReport)
		}
	}
	if stub.calls != 1 {
		t.Errorf("expected identical requests to hit the cache, got %d calls", stub.calls)
	}

	changed := sampleRequest()
	changed.FinanceOptions[0].LoanAmount = 20000
	if _, err := generator.Generate(context.Background(), changed); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("expected a different request to miss the cache, got %d calls", stub.calls)
	}
}

func TestCachedGeneratorDoesNotCacheFailures(t *testing.T) {
	stub := &stubGenerator{fail: 1, err: errors.New("down")}
	generator := NewCachedGenerator(stub, cache.NewMemory(time.Minute), nil)

	if _, err := generator.Generate(context.Background(), sampleRequest()); err == nil {
		t.Fatal("expected the first call to fail")
	}
	if _, err := generator.Generate(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("expected the second call to succeed, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(config.ReportConfig{Provider: "openai"}, nil, nil).(StaticGenerator); !ok {
		t.Error("expected the offline summary without an API key")
	}
	if _, ok := New(config.ReportConfig{Provider: "static", APIKey: "sk"}, nil, nil).(StaticGenerator); !ok {
		t.Error("expected the offline summary for the static provider")
	}
	if _, ok := New(config.ReportConfig{Provider: "openai", APIKey: "sk", MaxAttempts: 3}, nil, nil).(*RetryingGenerator); !ok {
		t.Error("expected retries around the provider")
	}
	if _, ok := New(config.ReportConfig{Provider: "openai", APIKey: "sk", MaxAttempts: 1}, nil, nil).(*OpenAIGenerator); !ok {
		t.Error("expected the bare provider for a single attempt")
	}
	if _, ok := New(config.ReportConfig{}, cache.NewMemory(time.Minute), nil).(*CachedGenerator); !ok {
		t.Error("expected the cache to wrap the generator")
	}
}
