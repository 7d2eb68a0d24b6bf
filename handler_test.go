package transform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu       sync.Mutex
	observed []string
}

func (o *recordingObserver) ObserveTransform(pair string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = append(o.observed, pair+"="+outcome)
}

type capturedCall struct {
	code             string
	transformOptions Options
	formatOptions    Options
}

func testHandler(t *testing.T, opts ...HandlerOption) (*Handler, *capturedCall) {
	t.Helper()

	captured := &capturedCall{}
	registry, err := NewRegistry(
		Entry{From: "babel", To: "js", Capability: CapabilityFunc(func(_ context.Context, code string, transformOptions, formatOptions Options) (string, error) {
			captured.code = code
			captured.transformOptions = transformOptions
			captured.formatOptions = formatOptions
			if strings.Contains(code, "((") {
				return "", errors.New("Unexpected token (1:2)")
			}
			return strings.ReplaceAll(code, "const", "var"), nil
		})},
		Entry{From: "empty", To: "js", Capability: CapabilityFunc(func(context.Context, string, Options, Options) (string, error) {
			return "", nil
		})},
	)
	require.NoError(t, err)

	return NewHandler(zaptest.NewLogger(t), registry, opts...), captured
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transform", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlerSuccess(t *testing.T) {
	as := require.New(t)
	observer := &recordingObserver{}
	h, captured := testHandler(t, WithObserver(observer))

	w := postJSON(t, h, `{"from":"babel","to":"js","input":"const x = 1","transformOptions":{"es2015":true}}`)

	as.Equal(http.StatusOK, w.Code)
	as.Contains(w.Header().Get("Content-Type"), "application/json")
	as.JSONEq(`{"output":"var x = 1"}`, w.Body.String())
	as.Equal("const x = 1", captured.code)
	as.Equal(Options{"es2015": true}, captured.transformOptions)
	as.Nil(captured.formatOptions)
	as.Equal([]string{"babel:js=ok"}, observer.observed)
}

func TestHandlerUnsupported(t *testing.T) {
	as := require.New(t)
	observer := &recordingObserver{}
	h, _ := testHandler(t, WithObserver(observer))

	w := postJSON(t, h, `{"from":"foo","to":"bar","input":"x"}`)

	as.Equal(http.StatusOK, w.Code)
	as.JSONEq(`{"message":"not supported"}`, w.Body.String())
	as.Equal([]string{"unsupported=unsupported"}, observer.observed)

	w = postJSON(t, h, ``)
	as.JSONEq(`{"message":"not supported"}`, w.Body.String())
}

func TestHandlerFailure(t *testing.T) {
	as := require.New(t)
	observer := &recordingObserver{}
	h, _ := testHandler(t, WithObserver(observer))

	w := postJSON(t, h, `{"from":"babel","to":"js","input":"(("}`)

	as.Equal(http.StatusOK, w.Code)

	var body map[string]any
	as.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	as.Equal("Unexpected token (1:2)", body["message"])
	as.NotContains(body, "output")
	as.Equal([]string{"babel:js=failed"}, observer.observed)
}

func TestHandlerClientCanceled(t *testing.T) {
	as := require.New(t)

	registry, err := NewRegistry(
		Entry{From: "svg", To: "react", Capability: CapabilityFunc(func(ctx context.Context, _ string, _, _ Options) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
	)
	as.NoError(err)

	core, logs := observer.New(zapcore.DebugLevel)
	observed := &recordingObserver{}
	h := NewHandler(zap.New(core), registry, WithObserver(observed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := h.Handle(ctx, Request{From: "svg", To: "react", Input: "<svg />"})
	as.True(resp.Failed)
	as.Equal([]string{"svg:react=canceled"}, observed.observed)
	as.Zero(logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	as.Equal(1, logs.FilterMessage("Transform canceled").Len())
}

func TestHandlerEmptyOutput(t *testing.T) {
	as := require.New(t)
	h, _ := testHandler(t)

	w := postJSON(t, h, `{"from":"empty","to":"js","input":""}`)
	as.JSONEq(`{"output":""}`, w.Body.String())
}

func TestHandlerFormatOptions(t *testing.T) {
	as := require.New(t)
	h, captured := testHandler(t)

	postJSON(t, h, `{"from":"babel","to":"js","input":"x","prettierOptions":{"semi":false}}`)
	as.Equal(Options{"semi": false}, captured.formatOptions)

	postJSON(t, h, `{"from":"babel","to":"js","input":"x","prettierOptions":{"semi":false},"formatOptions":{"tabWidth":4}}`)
	as.Equal(Options{"tabWidth": float64(4)}, captured.formatOptions)

	postJSON(t, h, `{"from":"babel","to":"js","input":"x","formatOptions":{}}`)
	as.NotNil(captured.formatOptions)
	as.Empty(captured.formatOptions)
}

func TestHandlerURLEncoded(t *testing.T) {
	as := require.New(t)
	h, captured := testHandler(t)

	form := url.Values{}
	form.Set("from", "babel")
	form.Set("to", "js")
	form.Set("input", "const y = 2")
	form.Set("transformOptions", `{"es2016":true}`)

	req := httptest.NewRequest(http.MethodPost, "/transform", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	as.JSONEq(`{"output":"var y = 2"}`, w.Body.String())
	as.Equal(Options{"es2016": true}, captured.transformOptions)
}

func TestHandlerInvalidRequest(t *testing.T) {
	as := require.New(t)
	h, _ := testHandler(t)

	w := postJSON(t, h, `{"from":`)
	as.Equal(http.StatusOK, w.Code)

	var resp Response
	as.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	as.True(resp.Failed)
	as.True(strings.HasPrefix(resp.Message, "invalid request: "))

	w = postJSON(t, h, `{"from":"babel","to":"js","transformOptions":"es2015"}`)
	as.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	as.True(resp.Failed)
}

func TestHandlerHandle(t *testing.T) {
	as := require.New(t)
	h, _ := testHandler(t)

	resp := h.Handle(context.Background(), Request{From: "babel", To: "js", Input: "const z = 3"})
	as.Equal(Success("var z = 3"), resp)

	resp = h.Handle(context.Background(), Request{From: "babel", To: "JS"})
	as.Equal(Failure("not supported"), resp)
}

func TestResponseJSON(t *testing.T) {
	as := require.New(t)

	var resp Response
	as.NoError(json.Unmarshal([]byte(`{"output":"x"}`), &resp))
	as.Equal(Success("x"), resp)

	as.NoError(json.Unmarshal([]byte(`{"message":"boom"}`), &resp))
	as.Equal(Failure("boom"), resp)

	as.Error(json.Unmarshal([]byte(`{"output":"x","message":"boom"}`), &resp))
	as.Error(json.Unmarshal([]byte(`{}`), &resp))
}
