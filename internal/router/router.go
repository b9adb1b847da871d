package routes

import (
	"net/http"

	_ "github.com/oggyb/smsoffice-gateway/internal/docs" // swagger docs
	"github.com/oggyb/smsoffice-gateway/internal/response"
	swaggerHandler "github.com/swaggo/http-swagger"
)

type AppDeps struct {
	Home HomeHandler
	SMS  SMSHandler
}

type HomeHandler interface {
	Index(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type SMSHandler interface {
	Send(w http.ResponseWriter, r *http.Request)
	GetHistory(w http.ResponseWriter, r *http.Request)
	GetDispatch(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	StartStopRetention(w http.ResponseWriter, r *http.Request)
}

func Register(mux *http.ServeMux, d AppDeps) {
	mux.HandleFunc("GET /{$}", d.Home.Index)
	mux.HandleFunc("GET /health", d.Home.Health)

	mux.HandleFunc("POST /sms", d.SMS.Send)
	mux.HandleFunc("GET /sms", d.SMS.GetHistory)
	mux.HandleFunc("GET /sms/stats", d.SMS.GetStats)
	mux.HandleFunc("GET /sms/{id}", d.SMS.GetDispatch)
	mux.HandleFunc("POST /retention", d.SMS.StartStopRetention)

	//Swagger
	mux.HandleFunc("GET /swagger/", swaggerHandler.WrapHandler)

	// Fallback handler for undefined routes (404)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found")
	}))
}
