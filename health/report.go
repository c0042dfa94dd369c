package health

import (
	"errors"

	"github.com/tidwall/pretty"
)

// indentOptions pretty-prints with two-space indentation and never sorts
// keys. Width 0 keeps every array element on its own line.
var indentOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Serialize encodes a report as JSON.
//
// The document has a fixed field order:
//
//	{"status":"Unhealthy","checks":[{"name":"A","status":"Healthy","description":"...","data":{...}}]}
//
// description and data are omitted when empty. With indent=false the output
// is a single line; with indent=true it is indented by two spaces and ends
// with a newline. Output is byte-stable for identical input. A data payload
// that cannot be encoded yields a *SerializationError and no output.
func Serialize(report Report, indent bool) ([]byte, error) {
	buf, err := report.appendJSON(make([]byte, 0, 128+96*len(report.Checks)))
	if err != nil {
		return nil, err
	}
	if indent {
		return pretty.PrettyOptions(buf, indentOptions), nil
	}
	return buf, nil
}

// MarshalJSON implements json.Marshaler using the compact Serialize layout.
func (r Report) MarshalJSON() ([]byte, error) {
	return Serialize(r, false)
}

func (r Report) appendJSON(buf []byte) ([]byte, error) {
	status, err := r.Status.MarshalText()
	if err != nil {
		return nil, &SerializationError{Check: r.Runner, Err: err}
	}

	buf = append(buf, `{"status":`...)
	buf = appendString(buf, string(status))
	buf = append(buf, `,"checks":[`...)
	for i, res := range r.Checks {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf, err = res.appendJSON(buf)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, "]}"...), nil
}

func (r Result) appendJSON(buf []byte) ([]byte, error) {
	status, err := r.Status.MarshalText()
	if err != nil {
		return nil, &SerializationError{Check: r.Name, Err: err}
	}

	buf = append(buf, `{"name":`...)
	buf = appendString(buf, r.Name)
	buf = append(buf, `,"status":`...)
	buf = appendString(buf, string(status))
	if r.Description != "" {
		buf = append(buf, `,"description":`...)
		buf = appendString(buf, r.Description)
	}
	if r.Data.Len() > 0 {
		buf = append(buf, `,"data":`...)
		buf, err = r.Data.appendJSON(buf, "")
		if err != nil {
			serr := &SerializationError{Check: r.Name, Err: err}
			var derr *dataError
			if errors.As(err, &derr) {
				serr.Key = derr.path
				serr.Err = derr.err
			}
			return nil, serr
		}
	}
	return append(buf, '}'), nil
}
