package written

import (
	"net/http"

	wrerrs "github.com/writtenhq/written/internal/errors"
)

// The full errorcode table. Every client-visible failure maps to exactly
// one of these; the messages are part of the API contract and never change.
var (
	ErrInvalidToken    = wrerrs.E(wrerrs.Code(10001), "Invalid facebook token", http.StatusBadRequest)
	ErrNicknameTaken   = wrerrs.E(wrerrs.Code(10002), "Nickname duplicate", http.StatusBadRequest)
	ErrUserNotFound    = wrerrs.E(wrerrs.Code(10003), "User does not exist", http.StatusBadRequest)
	ErrNotAuthorized   = wrerrs.E(wrerrs.Code(10004), "User is not authorized", http.StatusUnauthorized)
	ErrAlreadySignedUp = wrerrs.E(wrerrs.Code(10005), "User already signed up", http.StatusBadRequest)
	ErrProfaneNickname = wrerrs.E(wrerrs.Code(10006), "Nickname contains profanity", http.StatusBadRequest)

	ErrPostingNotFound = wrerrs.E(wrerrs.Code(20001), "Posting does not exist", http.StatusBadRequest)
	ErrTitleNotFound   = wrerrs.E(wrerrs.Code(20002), "Title does not exist", http.StatusBadRequest)
	ErrInvalidPage     = wrerrs.E(wrerrs.Code(20003), "Invalid pagination parameter", http.StatusBadRequest)
	ErrInvalidFilter   = wrerrs.E(wrerrs.Code(20004), "Invalid filter parameter", http.StatusBadRequest)
	ErrTitleNameTaken  = wrerrs.E(wrerrs.Code(20005), "Title name duplicate", http.StatusBadRequest)
	ErrInvalidPayload  = wrerrs.E(wrerrs.Code(20006), "Invalid request payload", http.StatusBadRequest)

	ErrAlreadySubscribed = wrerrs.E(wrerrs.Code(30001), "User is already subscribed", http.StatusBadRequest)
	ErrNotSubscribed     = wrerrs.E(wrerrs.Code(30002), "User is not subscribed", http.StatusBadRequest)

	ErrAlreadyScrapped = wrerrs.E(wrerrs.Code(40001), "Posting is already scrapped", http.StatusBadRequest)
	ErrNotScrapped     = wrerrs.E(wrerrs.Code(40002), "Posting is not scrapped", http.StatusBadRequest)
)
