package transport

import (
	"net/http"
	"strconv"

	"github.com/csbs/studyportal/internal/domain/activity"
)

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListActivityOptions{SubjectID: q.Get("subjectId")}

	if t := q.Get("type"); t != "" {
		typ := activity.ActivityType(t)
		opts.ActivityType = &typ
	}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeValidation(w, map[string]string{name: name + " must be a non-negative integer"})
			return
		}
		*dst = n
	}

	entries, err := s.services.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: entries})
}
