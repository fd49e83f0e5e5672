// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

const maxBodyBytes = 1 << 20

// errMalformedBody marks a body that is not valid JSON. It maps to 400,
// unlike semantic validation failures which map to 422.
var errMalformedBody = errors.New("malformed JSON body")

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected so typos surface instead of being ignored.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// amount fields report their own validation error
		if core.KindOf(err) == core.KindValidation {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// Date is a calendar date that accepts YYYY-MM-DD or RFC 3339 in JSON.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return core.Validationf("dates must be strings in YYYY-MM-DD format")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.DateOnly))
}

// ptr returns nil for a missing date.
func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (d *Date) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

// parseDate parses a date string in YYYY-MM-DD or RFC 3339 format.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, core.Validationf("invalid date %q: use YYYY-MM-DD", s)
		}
		t = t.UTC()
	}
	if err := core.ValidateDate(t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validationf("%s must be an integer", key)
	}
	return n, nil
}

func queryBool(q url.Values, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(q.Get(key)))
	return b
}

// ParseTransactionFilter reads type, category, from, to, limit and offset.
// The to date covers the whole day.
func ParseTransactionFilter(q url.Values, userID string) (store.TransactionFilter, error) {
	f := store.TransactionFilter{UserID: userID, CategoryID: strings.TrimSpace(q.Get("category"))}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	from, err := parseDate(q.Get("from"))
	if err != nil {
		return f, err
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return f, err
	}
	f.From = from
	if !to.IsZero() {
		f.To = core.EndOfDay(to)
	}
	if f.Limit, err = queryInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// ParseRangeSelection reads days or start/end. Custom dates win.
func ParseRangeSelection(q url.Values) (core.RangeSelection, error) {
	start, err := parseDate(q.Get("start"))
	if err != nil {
		return core.RangeSelection{}, err
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		return core.RangeSelection{}, err
	}
	if !start.IsZero() || !end.IsZero() {
		return core.CustomRange(start, end), nil
	}

	days, err := queryInt(q, "days")
	if err != nil {
		return core.RangeSelection{}, err
	}
	if strings.TrimSpace(q.Get("days")) != "" && days < 1 {
		return core.RangeSelection{}, core.Validationf("days must be at least 1")
	}
	return core.LastNDays(days), nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
