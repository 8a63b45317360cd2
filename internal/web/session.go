package web

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName    = "fairy"
	selectedKey    = "selected_project_id"
	flashErrorKey  = "error"
	flashNoticeKey = "success"
)

// NewCookieStore returns the session store used for the UI: the selected
// project and one-shot flash messages.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (h *Handler) session(r *http.Request) *sessions.Session {
	// A cookie that fails to decode (rotated secret) yields a fresh session.
	sess, err := h.sessions.Get(r, sessionName)
	if err != nil {
		h.logger.Debug("discarding undecodable session", "error", err)
	}
	return sess
}

func selectedID(sess *sessions.Session) string {
	id, _ := sess.Values[selectedKey].(string)
	return id
}

func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess := h.session(r)
	sess.AddFlash(message, kind)
	h.save(w, r, sess)
}

// takeFlashes pops pending messages. The caller must save the session before
// writing the response body.
func takeFlashes(sess *sessions.Session) []flash {
	var out []flash
	for _, kind := range []string{flashErrorKey, flashNoticeKey} {
		for _, msg := range sess.Flashes(kind) {
			if text, ok := msg.(string); ok {
				out = append(out, flash{Kind: kind, Message: text})
			}
		}
	}
	return out
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess *sessions.Session) {
	if err := sess.Save(r, w); err != nil {
		h.logger.Error("failed to save session", "error", err)
	}
}
