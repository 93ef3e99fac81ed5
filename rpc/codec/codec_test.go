package codec

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/rFS/rpc/common"
	"reflect"
	"strings"
	"testing"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() IRPCCodec{
	"Text": NewTextCodec,
}

// testRequests creates requests for every verb
func testRequests() []*common.Request {
	return []*common.Request{
		common.NewListRequest(),
		common.NewGetRequest("report.pdf"),
		common.NewGetRequest("my holiday photo.jpg"),
		common.NewDeleteRequest("old-data.bin"),
		common.NewUploadRequest("hello.txt", []byte("hello world")),
		common.NewUploadRequest("empty.dat", []byte{}),
		common.NewUploadRequest("with spaces.bin", []byte{0, 1, 2, 3, 0xff, '\r', '\n', '\r', '\n'}),
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			for _, req := range testRequests() {
				b, err := c.EncodeRequest(req)
				if err != nil {
					t.Fatalf("encode %s %q: %v", req.Verb, req.Name, err)
				}
				if bytes.Contains(b, []byte("\r\n\r\n")) {
					t.Errorf("encoded %s request contains the frame terminator", req.Verb)
				}

				got, err := c.DecodeRequest(b)
				if err != nil {
					t.Fatalf("decode %q: %v", b, err)
				}

				// nil and empty payloads are equivalent on the wire
				if len(req.Payload) == 0 && len(got.Payload) == 0 {
					got.Payload = req.Payload
				}
				if !reflect.DeepEqual(req, got) {
					t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", req, got)
				}
			}
		})
	}
}

func TestRequestWireFormat(t *testing.T) {
	c := NewTextCodec()

	tests := []struct {
		req  *common.Request
		want string
	}{
		{common.NewListRequest(), "LIST"},
		{common.NewGetRequest("a.txt"), "GET a.txt"},
		{common.NewDeleteRequest("a.txt"), "DELETE a.txt"},
		{common.NewUploadRequest("a.txt", []byte("hi")), "UPLOAD a.txt||aGk="},
	}

	for _, tt := range tests {
		got, err := c.EncodeRequest(tt.req)
		if err != nil {
			t.Fatalf("encode %s: %v", tt.req.Verb, err)
		}
		if string(got) != tt.want {
			t.Errorf("EncodeRequest(%s) = %q, want %q", tt.req.Verb, got, tt.want)
		}
	}
}

func TestDecodeRequestLenient(t *testing.T) {
	c := NewTextCodec()

	tests := map[string]*common.Request{
		"list":                   common.NewListRequest(),
		"  LIST  \r\n":           common.NewListRequest(),
		"get  a.txt":             common.NewGetRequest("a.txt"),
		"Delete b.txt\r\n":       common.NewDeleteRequest("b.txt"),
		"upload c.txt||aGk=\r\n": common.NewUploadRequest("c.txt", []byte("hi")),
	}

	for input, want := range tests {
		got, err := c.DecodeRequest([]byte(input))
		if err != nil {
			t.Errorf("DecodeRequest(%q) failed: %v", input, err)
			continue
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("DecodeRequest(%q) = %+v, want %+v", input, got, want)
		}
	}
}

func TestDecodeRequestErrors(t *testing.T) {
	c := NewTextCodec()

	tests := map[string]string{
		"":                          "empty request",
		"FOO bar":                   "unknown command",
		"UPLOAD a.txt aGk=":         "missing '||'",
		"UPLOAD a.txt||not base64!": "invalid base64",
		"UPLOAD ||aGk=":             "name is empty",
		"GET":                       "name is empty",
		"GET ../etc/passwd":         "path separator",
		"DELETE ..":                 "reserved",
	}

	for input, wantMsg := range tests {
		_, err := c.DecodeRequest([]byte(input))
		if err == nil {
			t.Errorf("DecodeRequest(%q) should fail", input)
			continue
		}
		if !errors.Is(err, common.ErrProtocol) {
			t.Errorf("DecodeRequest(%q) error %v does not wrap ErrProtocol", input, err)
		}
		if !strings.Contains(err.Error(), wantMsg) {
			t.Errorf("DecodeRequest(%q) error %q does not mention %q", input, err, wantMsg)
		}
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"a", "file.txt", "my file.txt", "..hidden", "a.b.c", "ümlaut.dat"}
	invalid := []string{"", ".", "..", "a||b", "dir/file", `dir\file`, "nul\x00", "line\nbreak", " lead", "trail "}

	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range invalid {
		err := ValidateName(name)
		if !errors.Is(err, common.ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}

	// the encoder refuses names the decoder could not parse back
	if _, err := NewTextCodec().EncodeRequest(common.NewUploadRequest("a||b", nil)); !errors.Is(err, common.ErrInvalidName) {
		t.Errorf("EncodeRequest with '||' in name = %v, want ErrInvalidName", err)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := []struct {
		verb common.Verb
		resp *common.Response
	}{
		{common.VerbList, common.NewListResponse([]string{"a.txt", "b.txt"})},
		{common.VerbList, common.NewListResponse(nil)},
		{common.VerbGet, common.NewGetResponse("a.txt", []byte("content\r\n\r\n"))},
		{common.VerbGet, common.NewGetResponse("empty.txt", []byte{})},
		{common.VerbUpload, common.NewAckResponse("file a.txt uploaded")},
		{common.VerbDelete, common.NewAckResponse("file a.txt deleted")},
		{common.VerbGet, common.NewErrorResponse("not found: a.txt")},
		{common.VerbUpload, common.NewErrorResponse("protocol error: missing '||' separator")},
	}

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			for _, tt := range tests {
				b, err := c.EncodeResponse(tt.resp)
				if err != nil {
					t.Fatalf("encode %+v: %v", tt.resp, err)
				}
				got, err := c.DecodeResponse(tt.verb, b)
				if err != nil {
					t.Fatalf("decode %s: %v", b, err)
				}
				if !reflect.DeepEqual(tt.resp, got) {
					t.Errorf("round trip mismatch for %s:\nwant %+v\ngot  %+v", b, tt.resp, got)
				}
			}
		})
	}
}

func TestResponseWireFormat(t *testing.T) {
	c := NewTextCodec()

	tests := []struct {
		resp *common.Response
		want string
	}{
		{common.NewListResponse([]string{"a"}), `{"status":"OK","data":["a"]}`},
		{common.NewListResponse(nil), `{"status":"OK","data":[]}`},
		{common.NewGetResponse("a", []byte("hi")), `{"status":"OK","data":{"filename":"a","file":"aGk="}}`},
		{common.NewAckResponse("done"), `{"status":"OK","data":"done"}`},
		{common.NewErrorResponse("boom"), `{"status":"ERROR","data":"boom"}`},
	}

	for _, tt := range tests {
		got, err := c.EncodeResponse(tt.resp)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("EncodeResponse = %s, want %s", got, tt.want)
		}
	}
}

func TestDecodeResponseFlatGet(t *testing.T) {
	c := NewTextCodec()

	b := []byte(`{"status":"OK","data_namafile":"a.txt","data_file":"aGk="}`)
	got, err := c.DecodeResponse(common.VerbGet, b)
	if err != nil {
		t.Fatalf("decode flat GET response: %v", err)
	}
	want := common.NewGetResponse("a.txt", []byte("hi"))
	if !reflect.DeepEqual(want, got) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeResponseErrors(t *testing.T) {
	c := NewTextCodec()

	tests := []struct {
		verb  common.Verb
		input string
	}{
		{common.VerbList, ""},
		{common.VerbList, "not json"},
		{common.VerbList, `{"status":"MAYBE","data":[]}`},
		{common.VerbList, `{"status":"OK","data":"not a list"}`},
		{common.VerbGet, `{"status":"OK","data":{"file":"aGk="}}`},
		{common.VerbGet, `{"status":"OK","data_namafile":"a","data_file":"%%%"}`},
	}

	for _, tt := range tests {
		_, err := c.DecodeResponse(tt.verb, []byte(tt.input))
		if !errors.Is(err, common.ErrProtocol) {
			t.Errorf("DecodeResponse(%s, %q) = %v, want ErrProtocol", tt.verb, tt.input, err)
		}
	}

	// non string error data is passed through as text
	got, err := c.DecodeResponse(common.VerbGet, []byte(`{"status":"ERROR","data":{"code":1}}`))
	if err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if got.Status != common.StatusError || got.Message != `{"code":1}` {
		t.Errorf("unexpected error response %+v", got)
	}
}
