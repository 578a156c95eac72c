package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

type fakeSearcher struct {
	got    models.SearchRequest
	result models.SearchResult
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, req models.SearchRequest) (models.SearchResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeInvoker struct {
	input   *lambda.InvokeInput
	payload string
	funcErr string
	err     error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	out := &lambda.InvokeOutput{StatusCode: 200, Payload: []byte(f.payload)}
	if f.funcErr != "" {
		out.FunctionError = aws.String(f.funcErr)
	}
	return out, nil
}

func TestToolRunDefaultsLimit(t *testing.T) {
	searcher := &fakeSearcher{result: models.SearchResult{Query: "go"}}
	tool := NewTool(ModeLocal, searcher, zerolog.Nop())

	if _, err := tool.Run(context.Background(), models.SearchRequest{Query: "go"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if searcher.got.Limit != DefaultLimit {
		t.Fatalf("limit = %d, want %d", searcher.got.Limit, DefaultLimit)
	}
	if _, err := tool.Run(context.Background(), models.SearchRequest{Query: "  "}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]string{"": ModeLocal, "local": ModeLocal, "LAMBDA": ModeLambda}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("ftp"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("ParseMode(ftp) error = %v", err)
	}
}

func TestLambdaSearcherSendsPayload(t *testing.T) {
	invoker := &fakeInvoker{payload: `{"query":"go","results":[{"title":"Gopher"}]}`}
	searcher := &LambdaSearcher{Client: invoker}

	result, err := searcher.Search(context.Background(), models.SearchRequest{Query: "go", Limit: 3, NextPageToken: "tok"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Results) != 1 || result.Results[0].Title != "Gopher" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if got := aws.ToString(invoker.input.FunctionName); got != DefaultLambdaName {
		t.Fatalf("function = %q", got)
	}
	if invoker.input.InvocationType != lambdatypes.InvocationTypeRequestResponse {
		t.Fatalf("invocation type = %q", invoker.input.InvocationType)
	}
	var sent map[string]any
	if err := json.Unmarshal(invoker.input.Payload, &sent); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if sent["query"] != "go" || sent["limit"] != float64(3) || sent["next_page_token"] != "tok" {
		t.Fatalf("payload = %v", sent)
	}
	if loc, ok := sent["location"]; !ok || loc != nil {
		t.Fatalf("location = %v, want explicit null", loc)
	}
}

func TestLambdaSearcherUnwrapsEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr string
	}{
		{
			name:    "string body",
			payload: `{"statusCode":200,"body":"{\"query\":\"go\",\"results\":[{\"title\":\"A\"}]}"}`,
			want:    "A",
		},
		{
			name:    "object body",
			payload: `{"statusCode":200,"body":{"query":"go","results":[{"title":"B"}]}}`,
			want:    "B",
		},
		{
			name:    "error status",
			payload: `{"statusCode":400,"body":"{\"error\":\"missing 'query' parameter\"}"}`,
			wantErr: "missing 'query' parameter",
		},
		{
			name:    "not json",
			payload: `oops`,
			wantErr: "decode lambda payload",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &LambdaSearcher{Client: &fakeInvoker{payload: tt.payload}, FunctionName: "search"}
			result, err := searcher.Search(context.Background(), models.SearchRequest{Query: "go"})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(result.Results) != 1 || result.Results[0].Title != tt.want {
				t.Fatalf("result = %+v", result)
			}
		})
	}
}

func TestLambdaSearcherFunctionError(t *testing.T) {
	searcher := &LambdaSearcher{Client: &fakeInvoker{payload: `{"errorMessage":"boom"}`, funcErr: "Unhandled"}}
	_, err := searcher.Search(context.Background(), models.SearchRequest{Query: "go"})
	if err == nil || !strings.Contains(err.Error(), "Unhandled") {
		t.Fatalf("error = %v", err)
	}
}
