package handlers

import (
	"net/http"

	"github.com/gorilla/csrf"
)

const msgCSRF = "Security token missing or invalid. Please retry the action."

// CSRFFailure is installed as the gorilla/csrf error handler. The user is
// sent back to where they came from with an explanation.
func (rn *Renderer) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	rn.log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf check failed")
	rn.Flash(w, r, FlashDanger, msgCSRF)
	http.Redirect(w, r, backOr(r, "/submit"), http.StatusSeeOther)
}
