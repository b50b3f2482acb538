package handler

import (
	"net/http"

	"tailscale.com/tsweb"
)

// VarzHandler renders the published expvars in the prometheus text format
func VarzHandler(w http.ResponseWriter, r *http.Request) {
	tsweb.VarzHandler(w, r)
}
