package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/rFS/rpc/common"
	"strings"
	"unicode"
)

// uploadSeparator splits the file name from the base64 payload of an UPLOAD command
const uploadSeparator = "||"

// NewTextCodec creates the codec for the line based command protocol:
// requests are plain text (`LIST`, `GET <name>`, `UPLOAD <name>||<base64>`, `DELETE <name>`),
// responses are JSON objects of the form {"status": "OK"|"ERROR", "data": ...}
func NewTextCodec() IRPCCodec {
	return &textCodec{}
}

// textCodec is stateless and safe for concurrent use
type textCodec struct{}

// wireFile is the data object of a successful GET response
type wireFile struct {
	Name string `json:"filename"`
	Data []byte `json:"file"` // encoding/json uses standard base64 for []byte
}

type wireResponse struct {
	Status common.Status `json:"status"`
	Data   any           `json:"data"`
}

// wireResponseIn also accepts the flat GET form some servers send
// ({"status":"OK","data_namafile":...,"data_file":...})
type wireResponseIn struct {
	Status     common.Status   `json:"status"`
	Data       json.RawMessage `json:"data"`
	LegacyName *string         `json:"data_namafile"`
	LegacyFile *string         `json:"data_file"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IRPCCodec)
// --------------------------------------------------------------------------

func (c *textCodec) EncodeRequest(req *common.Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", common.ErrProtocol)
	}

	verb := req.Verb.String()
	switch req.Verb {
	case common.VerbList:
		return []byte(verb), nil

	case common.VerbGet, common.VerbDelete:
		if err := ValidateName(req.Name); err != nil {
			return nil, err
		}
		return []byte(verb + " " + req.Name), nil

	case common.VerbUpload:
		if err := ValidateName(req.Name); err != nil {
			return nil, err
		}
		// encode straight into the final buffer, the payload may be large
		encLen := base64.StdEncoding.EncodedLen(len(req.Payload))
		headerLen := len(verb) + 1 + len(req.Name) + len(uploadSeparator)
		buf := make([]byte, headerLen, headerLen+encLen)
		copy(buf, verb)
		buf[len(verb)] = ' '
		copy(buf[len(verb)+1:], req.Name)
		copy(buf[len(verb)+1+len(req.Name):], uploadSeparator)
		buf = buf[:headerLen+encLen]
		base64.StdEncoding.Encode(buf[headerLen:], req.Payload)
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", common.ErrProtocol, verb)
	}
}

func (c *textCodec) DecodeRequest(b []byte) (*common.Request, error) {
	line := bytes.TrimSpace(b)
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty request", common.ErrProtocol)
	}

	// the verb is the first whitespace separated token, the rest is its argument
	verbPart, rest := line, []byte(nil)
	if i := bytes.IndexFunc(line, unicode.IsSpace); i >= 0 {
		verbPart, rest = line[:i], bytes.TrimSpace(line[i:])
	}

	switch verb := common.ParseVerb(string(verbPart)); verb {
	case common.VerbList:
		return common.NewListRequest(), nil

	case common.VerbGet, common.VerbDelete:
		name := string(rest)
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		if verb == common.VerbGet {
			return common.NewGetRequest(name), nil
		}
		return common.NewDeleteRequest(name), nil

	case common.VerbUpload:
		namePart, payload, found := bytes.Cut(rest, []byte(uploadSeparator))
		if !found {
			return nil, fmt.Errorf("%w: malformed UPLOAD command, missing '%s' separator", common.ErrProtocol, uploadSeparator)
		}
		name := string(bytes.TrimSpace(namePart))
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		data := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
		n, err := base64.StdEncoding.Decode(data, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 payload: %v", common.ErrProtocol, err)
		}
		return common.NewUploadRequest(name, data[:n]), nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", common.ErrProtocol, truncate(string(verbPart), 32))
	}
}

func (c *textCodec) EncodeResponse(resp *common.Response) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", common.ErrProtocol)
	}

	w := wireResponse{Status: common.StatusOK}
	switch {
	case resp.Status != common.StatusOK:
		w.Status = common.StatusError
		w.Data = resp.Message
	case resp.File != nil:
		w.Data = wireFile{Name: resp.File.Name, Data: resp.File.Data}
	case resp.Names != nil:
		w.Data = resp.Names
	default:
		w.Data = resp.Message
	}

	return json.Marshal(w)
}

func (c *textCodec) DecodeResponse(verb common.Verb, b []byte) (*common.Response, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty response", common.ErrProtocol)
	}

	var w wireResponseIn
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", common.ErrProtocol, err)
	}

	switch w.Status {
	case common.StatusError:
		return common.NewErrorResponse(rawText(w.Data)), nil
	case common.StatusOK:
	default:
		return nil, fmt.Errorf("%w: unknown response status %q", common.ErrProtocol, w.Status)
	}

	switch verb {
	case common.VerbList:
		var names []string
		if err := json.Unmarshal(w.Data, &names); err != nil {
			return nil, fmt.Errorf("%w: malformed LIST data: %v", common.ErrProtocol, err)
		}
		return common.NewListResponse(names), nil

	case common.VerbGet:
		if w.LegacyFile != nil {
			data, err := base64.StdEncoding.DecodeString(*w.LegacyFile)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid base64 file content: %v", common.ErrProtocol, err)
			}
			name := ""
			if w.LegacyName != nil {
				name = *w.LegacyName
			}
			return common.NewGetResponse(name, data), nil
		}

		var f wireFile
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &f); err != nil {
				return nil, fmt.Errorf("%w: malformed GET data: %v", common.ErrProtocol, err)
			}
		}
		if f.Name == "" {
			return nil, fmt.Errorf("%w: GET response without file name", common.ErrProtocol)
		}
		if f.Data == nil {
			f.Data = []byte{}
		}
		return common.NewGetResponse(f.Name, f.Data), nil

	default:
		return common.NewAckResponse(rawText(w.Data)), nil
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ValidateName checks that a file name can be carried by the protocol and maps to a
// single flat file on the server. Names must be non-empty, must not be "." or "..",
// must not contain "||", path separators or control characters and must not start
// or end with whitespace (the decoder trims it).
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", common.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", common.ErrInvalidName, name)
	case strings.Contains(name, uploadSeparator):
		return fmt.Errorf("%w: %q contains %q", common.ErrInvalidName, name, uploadSeparator)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", common.ErrInvalidName, name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: %q contains a control character", common.ErrInvalidName, name)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q has leading or trailing whitespace", common.ErrInvalidName, name)
	}
	return nil
}

// rawText returns a JSON string value as plain text and any other value as its JSON text
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
