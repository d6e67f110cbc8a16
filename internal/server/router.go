package server

import (
	"log"
	"net/http"
	"time"

	"github.com/conductorhq/conductor/internal/handlers"
	"github.com/conductorhq/conductor/internal/httpx"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Project endpoints
	ph := handlers.NewProjectHandler(db)
	mux.Handle("/projects", methods(map[string]http.HandlerFunc{
		http.MethodGet:  ph.List,
		http.MethodPost: ph.Create,
	}))
	mux.Handle("/projects/get", methods(map[string]http.HandlerFunc{http.MethodGet: ph.Get}))
	mux.Handle("/projects/update", methods(map[string]http.HandlerFunc{http.MethodPost: ph.Update}))
	mux.Handle("/projects/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ph.Delete}))
	mux.Handle("/projects/financials", methods(map[string]http.HandlerFunc{http.MethodGet: ph.GetFinancials}))
	mux.Handle("/projects/invoices", methods(map[string]http.HandlerFunc{http.MethodPost: ph.CreateListInvoice}))

	// Contract endpoints (including the invoice-from-contract write path)
	ch := handlers.NewContractHandler(db)
	mux.Handle("/contracts", methods(map[string]http.HandlerFunc{http.MethodPost: ch.Create}))
	mux.Handle("/contracts/get", methods(map[string]http.HandlerFunc{http.MethodGet: ch.Get}))
	mux.Handle("/contracts/update", methods(map[string]http.HandlerFunc{http.MethodPost: ch.Update}))
	mux.Handle("/contracts/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ch.Delete}))
	mux.Handle("/contracts/tasks", methods(map[string]http.HandlerFunc{http.MethodPost: ch.AddTask}))
	mux.Handle("/contracts/tasks/update", methods(map[string]http.HandlerFunc{http.MethodPost: ch.UpdateTask}))
	mux.Handle("/contracts/tasks/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ch.DeleteTask}))
	mux.Handle("/contracts/invoices", methods(map[string]http.HandlerFunc{http.MethodPost: ch.CreateInvoice}))

	// Invoice endpoints
	ih := handlers.NewInvoiceHandler(db)
	mux.Handle("/invoices/get", methods(map[string]http.HandlerFunc{http.MethodGet: ih.Get}))
	mux.Handle("/invoices/by-number", methods(map[string]http.HandlerFunc{http.MethodGet: ih.ByNumber}))
	mux.Handle("/invoices/update", methods(map[string]http.HandlerFunc{http.MethodPost: ih.Update}))
	mux.Handle("/invoices/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ih.Delete}))
	mux.Handle("/invoices/create-next", methods(map[string]http.HandlerFunc{http.MethodPost: ih.CreateNext}))

	// Proposal endpoints
	prh := handlers.NewProposalHandler(db)
	mux.Handle("/proposals", methods(map[string]http.HandlerFunc{http.MethodPost: prh.Create}))
	mux.Handle("/proposals/get", methods(map[string]http.HandlerFunc{http.MethodGet: prh.Get}))
	mux.Handle("/proposals/update", methods(map[string]http.HandlerFunc{http.MethodPost: prh.Update}))
	mux.Handle("/proposals/delete", methods(map[string]http.HandlerFunc{http.MethodPost: prh.Delete}))
	mux.Handle("/proposals/promote", methods(map[string]http.HandlerFunc{http.MethodPost: prh.Promote}))

	return withRecover(withLogging(mux))
}

// methods dispatches by HTTP method and answers 405 with an Allow header
// otherwise.
func methods(m map[string]http.HandlerFunc) http.Handler {
	allow := ""
	for k := range m {
		if allow != "" {
			allow += ","
		}
		allow += k
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
