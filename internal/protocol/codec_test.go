package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
		checkFn func(t *testing.T, output string)
	}{
		{
			name: "valid get_jobs request",
			req: &Request{
				Protocol: SupportedProtocol,
				Command:  CommandGetJobs,
				Payload:  map[string]any{"num_jobs": 1},
			},
			wantErr: false,
			checkFn: func(t *testing.T, output string) {
				if !strings.Contains(output, `"protocol":1`) {
					t.Error("missing protocol field")
				}
				if !strings.Contains(output, `"command":"get_jobs"`) {
					t.Error("missing command field")
				}
			},
		},
		{
			name: "unsupported protocol version",
			req: &Request{
				Protocol: 2,
				Command:  CommandGetJobs,
			},
			wantErr: true,
		},
		{
			name: "update_jobs request with args",
			req: &Request{
				Protocol: SupportedProtocol,
				Command:  CommandUpdateJobs,
				Payload:  map[string]any{"jobs": []any{"101"}},
				Args:     map[string]string{"resource": "SITE1"},
			},
			wantErr: false,
			checkFn: func(t *testing.T, output string) {
				if !strings.Contains(output, `"command":"update_jobs"`) {
					t.Error("missing command field")
				}
				if !strings.Contains(output, `"args"`) {
					t.Error("missing args field")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeRequest(&buf, tt.req)

			if (err != nil) != tt.wantErr {
				t.Errorf("EncodeRequest() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, buf.String())
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		checkFn func(t *testing.T, resp *Response)
	}{
		{
			name:    "valid ok response",
			input:   `{"status":"ok","content":{"num_jobs":1}}`,
			wantErr: false,
			checkFn: func(t *testing.T, resp *Response) {
				if resp.Status != "ok" {
					t.Errorf("want status=ok, got %s", resp.Status)
				}
				if resp.Content["num_jobs"] != float64(1) {
					t.Error("content not parsed correctly")
				}
			},
		},
		{
			name:    "valid error response",
			input:   `{"status":"error","error":"something went wrong"}`,
			wantErr: false,
			checkFn: func(t *testing.T, resp *Response) {
				if resp.Error != "something went wrong" {
					t.Errorf("want error message, got %s", resp.Error)
				}
			},
		},
		{name: "missing status field", input: `{"content":{}}`, wantErr: true},
		{name: "invalid status value", input: `{"status":"unknown"}`, wantErr: true},
		{name: "error status without message", input: `{"status":"error"}`, wantErr: true},
		{name: "invalid JSON", input: `{not json}`, wantErr: true},
		{name: "empty input", input: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.input)
			resp, err := DecodeResponse(reader)

			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeResponse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, resp)
			}
		})
	}
}

func TestDecodeResponseLenient(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		wantRawData bool
	}{
		{name: "valid JSON response", input: `{"status":"ok"}`, wantErr: false, wantRawData: true},
		{name: "invalid JSON captures raw data", input: `not json at all`, wantErr: true, wantRawData: true},
		{name: "empty output", input: ``, wantErr: true, wantRawData: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.input)
			resp, rawData, err := DecodeResponseLenient(reader)

			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeResponseLenient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantRawData && len(rawData) == 0 {
				t.Error("expected raw data to be captured")
			}
			if !tt.wantErr && resp == nil {
				t.Error("expected response to be parsed")
			}
		})
	}
}
