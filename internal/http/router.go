package http

import (
	"net/http"
	"strings"
)

// RouterConfig names the handlers served by the router; nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Students   *StudentHandler
	Lecturers  *LecturerHandler
	Lectures   *LectureHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API route table.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Students != nil {
		mux.HandleFunc("/api/student/enroll", postOnly(cfg.Students.Enroll))
		mux.HandleFunc("/api/student/login", postOnly(cfg.Students.Login))
		mux.HandleFunc("/api/student/modules/get", getOrPost(cfg.Students.GetModules))
		mux.HandleFunc("/api/student/modules/replace", postOnly(cfg.Students.ReplaceModules))
	}

	if cfg.Lecturers != nil {
		mux.HandleFunc("/api/lecturer/hire", postOnly(cfg.Lecturers.Hire))
		mux.HandleFunc("/api/lecturer/login", postOnly(cfg.Lecturers.Login))
		mux.HandleFunc("/api/lecturer/modules/get", getOrPost(cfg.Lecturers.GetModules))
		mux.HandleFunc("/api/lecturer/modules/replace", postOnly(cfg.Lecturers.ReplaceModules))
	}

	if cfg.Lectures != nil {
		mux.HandleFunc("/api/lecture/setModule", postOnly(cfg.Lectures.SetModule))
		mux.HandleFunc("/api/lecture/setLecturer", postOnly(cfg.Lectures.SetLecturer))
		mux.HandleFunc("/api/lecture/student/add", postOnly(cfg.Lectures.AddStudent))
		mux.HandleFunc("/api/lecture/student/remove", postOnly(cfg.Lectures.RemoveStudent))
		mux.HandleFunc("/api/lecture/end", postOnly(cfg.Lectures.End))
		mux.HandleFunc("/api/lecture/make", postOnly(cfg.Lectures.Make))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		next(w, r)
	}
}

func getOrPost(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
