package server

import (
	"net/http"
)

// PlanningEntry is one published timetable
type PlanningEntry struct {
	Semester string `json:"semester"`
	Group    string `json:"group"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func (s *Server) StudentDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "student.title")
		page.User = userFromContext(r.Context())
		s.render(w, http.StatusOK, pageStudentDashboard, page)
	}
}

// StudentPlanningHandler shows the timetables published for the student's group
func (s *Server) StudentPlanningHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "planning.title")
		page.User = userFromContext(r.Context())

		var planning []PlanningEntry
		if err := s.gateway.GetJSON(r.Context(), apiStudentPlanning, &planning); err != nil {
			if s.sessionLost(w, r, studentPlanningRoute, err) {
				return
			}
			page.Error = page.T("data.unavailable")
		} else {
			page.Data = planning
		}
		s.render(w, http.StatusOK, pageStudentPlanning, page)
	}
}

func (s *Server) AccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "account.title")
		page.User = userFromContext(r.Context())
		s.render(w, http.StatusOK, pageAccount, page)
	}
}
