package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PatchJSON applies e to the addressed slide of an encoded document and
// returns the re-encoded document with the patched slide.
//
// The edit is validated on the typed model first. The write then replaces only
// the addressed leaf in the raw member tree, so members the model does not
// know, explicit nulls and member order are kept as they were.
func PatchJSON(data []byte, lessonID, slideID string, e Edit) ([]byte, *Slide, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	slide, err := doc.Patch(lessonID, slideID, e)
	if err != nil {
		return nil, nil, err
	}

	leaf, err := marshal(e.value())
	if err != nil {
		return nil, nil, err
	}
	segs := strings.Split(e.Path(), ".")
	out, err := setMember(data, "lessons", func(lessons json.RawMessage) (json.RawMessage, error) {
		return setElement(lessons, matchString("id", lessonID), func(lesson json.RawMessage) (json.RawMessage, error) {
			return setMember(lesson, "slides", func(slides json.RawMessage) (json.RawMessage, error) {
				return setElement(slides, matchSlideID(slideID), func(s json.RawMessage) (json.RawMessage, error) {
					return setPath(s, segs, leaf)
				})
			})
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("patch document: %w", err)
	}

	var compact, indented bytes.Buffer
	if err := json.Compact(&compact, out); err != nil {
		return nil, nil, fmt.Errorf("patch document: %w", err)
	}
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		return nil, nil, fmt.Errorf("patch document: %w", err)
	}
	return indented.Bytes(), slide, nil
}

type member struct {
	key   string
	value json.RawMessage
}

func parseObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("expected object")
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, member{key: key, value: v})
	}
	return out, nil
}

func encodeObject(members []member) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(m.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseArray(data []byte) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeArray(elems []json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// setMember rewrites the value of key, appending the member when absent.
func setMember(obj json.RawMessage, key string, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	members, err := parseObject(obj)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].key == key {
			v, err := fn(members[i].value)
			if err != nil {
				return nil, err
			}
			members[i].value = v
			return encodeObject(members)
		}
	}
	v, err := fn(nil)
	if err != nil {
		return nil, err
	}
	return encodeObject(append(members, member{key: key, value: v}))
}

// setElement rewrites the first array element that match accepts.
func setElement(arr json.RawMessage, match func(json.RawMessage) bool, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	elems, err := parseArray(arr)
	if err != nil {
		return nil, err
	}
	for i := range elems {
		if match(elems[i]) {
			v, err := fn(elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = v
			return encodeArray(elems), nil
		}
	}
	return nil, ErrNotFound
}

// setPath replaces the value at a dotted path of keys and indexes.
func setPath(v json.RawMessage, segs []string, leaf json.RawMessage) (json.RawMessage, error) {
	if len(segs) == 0 {
		return leaf, nil
	}
	if i, err := strconv.Atoi(segs[0]); err == nil {
		elems, err := parseArray(v)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(elems) {
			return nil, ErrIndexOutOfRange
		}
		if elems[i], err = setPath(elems[i], segs[1:], leaf); err != nil {
			return nil, err
		}
		return encodeArray(elems), nil
	}
	return setMember(v, segs[0], func(child json.RawMessage) (json.RawMessage, error) {
		if child == nil && len(segs) > 1 {
			return nil, ErrInvalidPath
		}
		return setPath(child, segs[1:], leaf)
	})
}

func matchString(key, want string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			return false
		}
		var got string
		return json.Unmarshal(fields[key], &got) == nil && got == want
	}
}

func matchSlideID(want string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var s struct {
			ID SlideID `json:"id"`
		}
		return json.Unmarshal(raw, &s) == nil && s.ID.Text == want
	}
}
