package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"taskfeed/internal/identity"
	"taskfeed/pkg/task"
)

type apiError struct {
	status int
	key    string
	msg    string
}

var (
	errNoTasks        = apiError{http.StatusNotFound, "notasksfound", "No tasks found"}
	errNoTaskWithID   = apiError{http.StatusNotFound, "notaskfound", "No task found with that id"}
	errTaskNotFound   = apiError{http.StatusNotFound, "tasknotfound", "No task found"}
	errNotAuthorized  = apiError{http.StatusUnauthorized, "notauthorized", "User not authorized"}
	errAlreadyLiked   = apiError{http.StatusBadRequest, "alreadyliked", "User already liked this task"}
	errNotLiked       = apiError{http.StatusBadRequest, "notliked", "You have not yet liked this task"}
	errNoComment      = apiError{http.StatusNotFound, "commentnotexists", "Comment does not exists"}
	errNoCaller       = apiError{http.StatusUnauthorized, "unauthenticated", "Authentication required"}
	errUnavailable    = apiError{http.StatusServiceUnavailable, "storeunavailable", "Service temporarily unavailable"}
	errInternal       = apiError{http.StatusInternalServerError, "error", "internal server error"}
	errMalformedDraft = apiError{http.StatusBadRequest, "body", "Request body must be a JSON object"}
)

func (e apiError) write(w http.ResponseWriter) {
	writeError(w, e.status, e.key, e.msg)
}

// writeTaskError maps a task.Service error onto its response. notFound is
// the body used for a missing task, which differs between routes.
func writeTaskError(w http.ResponseWriter, err error, notFound apiError) {
	var verr *task.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Errors)
	case errors.Is(err, task.ErrNotFound):
		notFound.write(w)
	case errors.Is(err, task.ErrCommentNotFound):
		errNoComment.write(w)
	case errors.Is(err, task.ErrUnauthorized):
		errNotAuthorized.write(w)
	case errors.Is(err, task.ErrUnauthenticated):
		errNoCaller.write(w)
	case errors.Is(err, task.ErrAlreadyLiked):
		errAlreadyLiked.write(w)
	case errors.Is(err, task.ErrNotLiked):
		errNotLiked.write(w)
	case errors.Is(err, task.ErrStoreUnavailable):
		errUnavailable.write(w)
	default:
		errInternal.write(w)
	}
}

// decodeDraft reads {text, name, avatar}. Any other field, including a
// user id, is ignored. An empty body decodes to an empty draft so the
// validator reports the missing text.
func decodeDraft(w http.ResponseWriter, r *http.Request) (task.Draft, bool) {
	var d task.Draft
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&d)
	if err != nil && !errors.Is(err, io.EOF) {
		errMalformedDraft.write(w)
		return task.Draft{}, false
	}
	return d, true
}

func caller(r *http.Request) identity.Caller {
	c, _ := identity.FromContext(r.Context())
	return c
}

func (s *Server) handleTaskTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Tasks Works"})
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListTasks(r.Context())
	if err != nil {
		errNoTasks.write(w)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeTaskError(w, err, errNoTaskWithID)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	t, err := s.tasks.CreateTask(r.Context(), d, caller(r))
	if err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteTask(r.Context(), r.PathValue("id"), caller(r)); err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.AddLike(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.RemoveLike(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCommentAdd(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	t, err := s.tasks.AddComment(r.Context(), r.PathValue("id"), d, caller(r))
	if err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCommentRemove(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.RemoveComment(r.Context(), r.PathValue("id"), r.PathValue("commentId"), caller(r))
	if err != nil {
		writeTaskError(w, err, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
