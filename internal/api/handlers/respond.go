package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "sponsorops/internal/api/context"
	"sponsorops/internal/platform/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(apiContext.User).(*models.User)
	return u
}

func currentOrg(r *http.Request) string {
	org, _ := r.Context().Value(apiContext.Tenant).(string)
	return org
}

func pathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

type okResponse struct {
	OK bool `json:"ok"`
}

var ok = okResponse{OK: true}
