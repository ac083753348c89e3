package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Public pages
	RouteHome     = "/"
	RoutePrograms = "/programs"
	RouteContact  = "/contact"

	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Language switch
	RouteLang = "/lang/{code}"

	// Guarded pages
	RouteAdminDashboard   = "/admin/dashboard"
	RouteStudentDashboard = "/student/dashboard"
	RouteStudentPlanning  = "/student/planning"
	RouteAccount          = "/account"

	// Session API
	RouteSession       = "/session"
	RouteSessionEvents = "/session/events"
	RouteHealth        = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)

// Remote API paths used by the dashboards
const (
	apiAdminStats      = "/admin/stats"
	apiStudentPlanning = "/student/planning"
)
