package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/writtenhq/written/internal/serverutil"
	"github.com/writtenhq/written/internal/written"
)

type CreateTitleReq struct {
	Name string `json:"name"`
}

func (req CreateTitleReq) Validate() error {
	if req.Name == "" {
		return written.ErrInvalidPayload
	}

	return nil
}

func (s *Server) postTitle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := decodeValid[CreateTitleReq](r.Body)
	if err != nil {
		return err
	}

	title, err := s.repo.CreateTitle(ctx, body.Name)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusCreated, apiTitle(title))
}

func (s *Server) getTitles(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	args, err := titleFeedArgs(r)
	if err != nil {
		return err
	}

	page, err := s.repo.Titles(ctx, args)
	if err != nil {
		return err
	}

	titles := make([]TitleResp, 0, len(page.Items))
	for _, t := range page.Items {
		titles = append(titles, apiTitle(t))
	}

	return serverutil.WriteJSON(w, http.StatusOK, TitleListResp{
		Titles:  titles,
		HasNext: page.HasNext,
		Cursor:  page.Cursor,
	})
}

func (s *Server) getTodayTitle(w http.ResponseWriter, r *http.Request) error {
	title, err := s.repo.TodayTitle(r.Context())
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiTitle(title))
}

func (s *Server) getTitlePostings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	titleID, err := strconv.ParseInt(mux.Vars(r)["titleID"], 10, 64)
	if err != nil {
		return written.ErrTitleNotFound
	}

	args, err := pageArgs(r, titlePageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.PostingsByTitle(ctx, titleID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPostingList(page))
}
