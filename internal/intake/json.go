package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSON decodes an /analyze body:
//
//	{"activities":[{"name":"A","optimisticTime":"1","mostLikelyTime":"2",
//	  "pessimisticTime":"3","precedents":"B,C"}],"deadline":12}
//
// Times may be strings or numbers. Precedents may be a comma-separated string
// or an array of names.
func ParseJSON(data []byte) (*Request, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	root := gjson.ParseBytes(data)
	acts := root.Get("activities")
	if !acts.IsArray() {
		return nil, fmt.Errorf("%w: \"activities\" must be an array", ErrMalformed)
	}

	req := &Request{Activities: []Activity{}}
	var parseErr error
	pos := 0
	acts.ForEach(func(_, item gjson.Result) bool {
		pos++
		if !item.IsObject() {
			parseErr = fmt.Errorf("%w: activity #%d is not an object", ErrMalformed, pos)
			return false
		}
		req.Activities = append(req.Activities, Activity{
			Name:        strings.TrimSpace(item.Get("name").String()),
			Optimistic:  scalar(field(item, "optimisticTime", "optimistic")),
			MostLikely:  scalar(field(item, "mostLikelyTime", "mostLikely", "most_likely")),
			Pessimistic: scalar(field(item, "pessimisticTime", "pessimistic")),
			Precedents:  precedents(item.Get("precedents")),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if d := root.Get("deadline"); d.Exists() && d.Type != gjson.Null {
		v, err := strconv.ParseFloat(strings.TrimSpace(scalar(d)), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: deadline %q is not a number", ErrMalformed, d.Raw)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: deadline %q is not a finite number", ErrMalformed, d.Raw)
		}
		req.Deadline = &v
	}

	return req, nil
}

// field returns the first key present on obj.
func field(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// scalar renders a JSON scalar the way the caller typed it.
func scalar(r gjson.Result) string {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return ""
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	default:
		return r.Raw
	}
}

func precedents(r gjson.Result) []string {
	switch {
	case r.IsArray():
		var names []string
		for _, item := range r.Array() {
			names = append(names, item.String())
		}
		return NormalizePrecedents(names)
	case r.Type == gjson.String:
		return SplitPrecedents(r.Str)
	default:
		return nil
	}
}
