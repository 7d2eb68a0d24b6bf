package transform

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	pool "github.com/libp2p/go-buffer-pool"
)

// Request is a single transformation request.
type Request struct {
	From             string  `json:"from"`
	To               string  `json:"to"`
	Input            string  `json:"input"`
	TransformOptions Options `json:"transformOptions"`
	FormatOptions    Options `json:"formatOptions"`
	// PrettierOptions is the older name of FormatOptions and is only used
	// when FormatOptions is absent.
	PrettierOptions Options `json:"prettierOptions"`
}

func (r *Request) formatOptions() Options {
	if r.FormatOptions != nil {
		return r.FormatOptions
	}
	return r.PrettierOptions
}

// Response carries either an output or a failure message, never both.
type Response struct {
	Output  string
	Message string
	Failed  bool
}

func Success(output string) Response {
	return Response{Output: output}
}

func Failure(message string) Response {
	return Response{Message: message, Failed: true}
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Failed {
		return json.Marshal(struct {
			Message string `json:"message"`
		}{r.Message})
	}
	return json.Marshal(struct {
		Output string `json:"output"`
	}{r.Output})
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var raw struct {
		Output  *string `json:"output"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.Output != nil && raw.Message != nil:
		return fmt.Errorf("response has both output and message")
	case raw.Message != nil:
		*r = Failure(*raw.Message)
	case raw.Output != nil:
		*r = Success(*raw.Output)
	default:
		return fmt.Errorf("response has neither output nor message")
	}
	return nil
}

// decodeRequest reads a JSON or url-encoded body. In url-encoded bodies the
// option fields carry JSON text.
func decodeRequest(r *http.Request) (Request, error) {
	var req Request

	b := pool.NewBuffer(nil)
	defer b.Reset()

	if r.Body != nil {
		if _, err := b.ReadFrom(r.Body); err != nil {
			return req, fmt.Errorf("reading body: %w", err)
		}
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		form, err := url.ParseQuery(b.String())
		if err != nil {
			return req, fmt.Errorf("parsing form: %w", err)
		}
		req.From = form.Get("from")
		req.To = form.Get("to")
		req.Input = form.Get("input")
		for field, dst := range map[string]*Options{
			"transformOptions": &req.TransformOptions,
			"formatOptions":    &req.FormatOptions,
			"prettierOptions":  &req.PrettierOptions,
		} {
			if !form.Has(field) || form.Get(field) == "" {
				continue
			}
			if err := json.Unmarshal([]byte(form.Get(field)), dst); err != nil {
				return req, fmt.Errorf("parsing %s: %w", field, err)
			}
		}
		return req, nil
	}

	if b.Len() == 0 {
		return req, nil
	}

	if err := json.Unmarshal(b.Bytes(), &req); err != nil {
		return req, fmt.Errorf("parsing json: %w", err)
	}
	return req, nil
}
