// Package server exposes the search index over a JSON HTTP API.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fluxcapacitor2/websearch/app/config"
	"github.com/fluxcapacitor2/websearch/app/database"
	"github.com/fluxcapacitor2/websearch/app/search"
)

type httpResponse struct {
	status       int16
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	Results      []search.Result `json:"results"`
	Model        search.Model    `json:"model,omitempty"`
	ResponseTime float64         `json:"responseTime"`
}

// Handler serves GET /api/search?q=<query>&model=<tfidf|tfidf-title|vector>.
// The model parameter defaults to tfidf-title when absent.
func Handler(db database.Database) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search", func(w http.ResponseWriter, req *http.Request) {
		timeStart := time.Now().UnixMicro()
		var response *httpResponse

		q := req.URL.Query().Get("q")
		model := search.Model(req.URL.Query().Get("model"))
		if model == "" {
			model = search.ModelTitleWeighted
		}

		if q != "" {
			results, err := search.Search(db, q, model)
			if err != nil {
				response = &httpResponse{
					status:  400,
					Success: false,
					Error:   err.Error(),
				}

				fmt.Printf("Error generating search results: %v\n", err)
			} else {
				response = &httpResponse{
					status:  200,
					Success: true,
					Results: results,
					Model:   model,
				}
			}
		} else {
			response = &httpResponse{
				status:  400,
				Success: false,
				Error:   "Bad request",
			}
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(int(response.status))
		response.ResponseTime = float64(time.Now().UnixMicro()-timeStart) / 1e6
		str, err := json.Marshal(response)
		if err != nil {
			w.Write([]byte(`{"success":false,"error":"Failed to marshal struct into JSON"}`))
		} else {
			w.Write(str)
		}
	})

	return mux
}

func Start(db database.Database, config *config.Config) {
	addr := fmt.Sprintf("%v:%v", config.Http.Listen, config.Http.Port)
	fmt.Printf("Listening on http://%v\n", addr)
	log.Fatal(http.ListenAndServe(addr, Handler(db)))
}
