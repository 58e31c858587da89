package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable numeric errorcode surfaced to clients.
//
// Codes are grouped by domain: 10000 users, 20000 postings/titles,
// 30000 subscriptions, 40000 scraps, 50000 internal.
type Code int

// Error represents a universal error type between the layers of the service.
type Error struct {
	Code   Code
	Status int
	Err    error // The error this wraps
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d (%d): %s", e.Code, e.Status, e.Err)
}

type transport struct {
	Errorcode int    `json:"errorcode"`
	Message   string `json:"message"`
	Status    int    `json:"status_code"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Errorcode: int(e.Code),
		Message:   e.Err.Error(),
		Status:    e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Code = Code(t.Errorcode)
	e.Err = errors.New(t.Message)
	e.Status = t.Status
	return nil
}

// E builds an [Error] out of whatever arguments it's handed: a string or
// error becomes the wrapped error, an int becomes the HTTP status, and a
// [Code] becomes the errorcode.
func E(args ...any) *Error {
	ret := &Error{
		Status: http.StatusInternalServerError,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case Code:
			ret.Code = arg
		case int:
			ret.Status = arg
		}
	}

	return ret
}
