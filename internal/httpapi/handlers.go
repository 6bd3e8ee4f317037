// Package httpapi wires the legacy bbs.cgi write/read/activation/streaming
// HTTP surface (spec §6) to the post pipeline, the Shift_JIS wire-format
// renderers, and the streaming manager.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/authedtoken"
	"github.com/eddist-go/bbs/internal/bbscgi"
	"github.com/eddist-go/bbs/internal/pipeline"
	"github.com/eddist-go/bbs/internal/repository"
	streampkg "github.com/eddist-go/bbs/internal/streaming"
)

const (
	edgeTokenCookieName = "edge-token"
	tinkerCookieName    = "tinker"

	maxWriteBodyBytes = 1 << 16
)

// Env bounds request-derived context extraction that varies by
// deployment, mirroring spec §6's environment contract.
type Env struct {
	ASNHeaderName string
	CookieSecure  bool
}

// Handlers implements the legacy bbs.cgi write/read/activation/streaming
// HTTP surface, dispatching writes through a Pipeline and rendering reads
// through the Shift_JIS wire-format renderers in render.go.
type Handlers struct {
	pipeline *pipeline.Pipeline
	bbs      repository.BbsRepository
	tokens   repository.AuthedTokenRepository
	streams  *streampkg.Manager
	env      Env
	logger   zerolog.Logger
}

// New builds a Handlers.
func New(p *pipeline.Pipeline, bbs repository.BbsRepository, tokens repository.AuthedTokenRepository, streams *streampkg.Manager, env Env, logger zerolog.Logger) *Handlers {
	return &Handlers{pipeline: p, bbs: bbs, tokens: tokens, streams: streams, env: env, logger: logger}
}

// WriteBBS handles POST /test/bbs.cgi: a thread-creation or response
// submission, form-encoded in Shift_JIS.
func (h *Handlers) WriteBBS(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWriteBodyBytes+1))
	if err != nil {
		h.writeError(w, bbscgi.Wrap(err))
		return
	}
	if len(body) > maxWriteBodyBytes {
		h.writeError(w, bbscgi.BadRequest("request body too large"))
		return
	}

	form, err := ParseSJISForm(body)
	if err != nil {
		h.writeError(w, bbscgi.BadRequest("malformed form body"))
		return
	}

	req := pipeline.Request{
		BoardKey:  form["bbs"],
		Submit:    form["submit"],
		From:      form["FROM"],
		Mail:      form["mail"],
		Message:   form["MESSAGE"],
		Subject:   form["subject"],
		IP:        ExtractIP(r),
		ASN:       ExtractASN(r, h.env.ASNHeaderName),
		UserAgent: ExtractUserAgent(r),
	}
	if key := form["key"]; key != "" {
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			h.writeError(w, bbscgi.BadRequest("malformed thread key"))
			return
		}
		req.ThreadNumber = &n
	}
	if c, err := r.Cookie(tinkerCookieName); err == nil {
		req.TinkerCookie = c.Value
	}
	if c, err := r.Cookie(edgeTokenCookieName); err == nil {
		req.CookieToken = c.Value
	}

	result, err := h.pipeline.Execute(r.Context(), req, time.Now())
	if err != nil {
		var actErr *pipeline.ActivationRequiredError
		if errors.As(err, &actErr) {
			h.setCookie(w, r, edgeTokenCookieName, actErr.Info.Token)
			h.logger.Info().Str("token", actErr.Info.Token).Str("auth_code", actErr.Info.AuthCode).Msg("issued activation code")
			h.writeHTML(w, actErr.Err.Kind.Status(), fmt.Sprintf("this writing session requires activation via /auth-code before it can post (auth code %s)", actErr.Info.AuthCode))
			return
		}
		var bErr *bbscgi.Error
		if errors.As(err, &bErr) {
			h.writeError(w, bErr)
			return
		}
		h.writeError(w, bbscgi.Wrap(err))
		return
	}

	h.setCookie(w, r, edgeTokenCookieName, result.SetToken)
	if result.SetTinkerJWT != "" {
		h.setCookie(w, r, tinkerCookieName, result.SetTinkerJWT)
	}
	h.writeHTML(w, http.StatusOK, fmt.Sprintf("posted (res %d)", result.ResOrder))
}

// SubjectTxt handles GET /{board_key}/subject.txt.
func (h *Handlers) SubjectTxt(w http.ResponseWriter, r *http.Request) {
	boardKey := r.PathValue("board_key")
	b, _, err := h.bbs.BoardByKey(r.Context(), boardKey)
	if err != nil {
		h.writeNotFoundOrInternal(w, err)
		return
	}

	threads, err := h.bbs.ThreadsByBoard(r.Context(), b.ID)
	if err != nil {
		h.writeError(w, bbscgi.Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=Shift_JIS")
	_, _ = w.Write(RenderSubject(threads))
}

// Dat handles GET /{board_key}/dat/{thread_number}.dat.
func (h *Handlers) Dat(w http.ResponseWriter, r *http.Request) {
	boardKey := r.PathValue("board_key")
	threadNumber, err := strconv.ParseInt(r.PathValue("thread_number"), 10, 64)
	if err != nil {
		h.writeError(w, bbscgi.BadRequest("malformed thread number"))
		return
	}

	b, _, err := h.bbs.BoardByKey(r.Context(), boardKey)
	if err != nil {
		h.writeNotFoundOrInternal(w, err)
		return
	}

	th, err := h.bbs.ThreadByNumber(r.Context(), b.ID, threadNumber)
	if err != nil {
		h.writeNotFoundOrInternal(w, err)
		return
	}

	responses, err := h.bbs.ResponsesByThread(r.Context(), th.ID)
	if err != nil {
		h.writeError(w, bbscgi.Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=Shift_JIS")
	_, _ = w.Write(RenderDat(responses, th.Title))
}

// AuthCode handles POST /auth-code: out-of-band activation of the token
// carried by the requester's current edge-token cookie.
func (h *Handlers) AuthCode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWriteBodyBytes+1))
	if err != nil {
		h.writeError(w, bbscgi.Wrap(err))
		return
	}
	form, err := ParseSJISForm(body)
	if err != nil {
		h.writeError(w, bbscgi.BadRequest("malformed form body"))
		return
	}

	cookie, err := r.Cookie(edgeTokenCookieName)
	if err != nil || cookie.Value == "" {
		h.writeError(w, bbscgi.Unauthorized("no write session cookie present"))
		return
	}

	t, err := h.tokens.ByToken(r.Context(), cookie.Value)
	if err != nil {
		h.writeError(w, bbscgi.Unauthorized("unknown write session"))
		return
	}

	activated, err := t.Activate(form["auth_code"], ExtractUserAgent(r), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, authedtoken.ErrActivationExpired):
			h.writeError(w, bbscgi.TooSoon("activation window has expired, request a new session"))
		case errors.Is(err, authedtoken.ErrBadCode):
			h.writeError(w, bbscgi.Unauthorized("auth code does not match"))
		default:
			h.writeError(w, bbscgi.Wrap(err))
		}
		return
	}

	if err := h.tokens.Update(r.Context(), activated); err != nil {
		h.writeError(w, bbscgi.Wrap(err))
		return
	}

	h.writeHTML(w, http.StatusOK, "activated")
}

// Stream handles GET /{board_key}/thread/{thread_number}/stream: a
// server-sent-event (or WebSocket, on an Upgrade request) feed of
// JSON-encoded CreatingRes/CreatingThread envelopes published to the
// thread.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	boardKey := r.PathValue("board_key")
	threadNumber, err := strconv.ParseInt(r.PathValue("thread_number"), 10, 64)
	if err != nil {
		h.writeError(w, bbscgi.BadRequest("malformed thread number"))
		return
	}

	b, _, err := h.bbs.BoardByKey(r.Context(), boardKey)
	if err != nil {
		h.writeNotFoundOrInternal(w, err)
		return
	}
	th, err := h.bbs.ThreadByNumber(r.Context(), b.ID, threadNumber)
	if err != nil {
		h.writeNotFoundOrInternal(w, err)
		return
	}

	sub := h.streams.Subscribe(th.ID)
	defer sub.Unsubscribe()

	if streampkg.IsWebSocketUpgrade(r) {
		if err := streampkg.ServeWebSocket(w, r, sub); err != nil {
			h.logger.Warn().Err(err).Msg("httpapi: websocket stream ended")
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, bbscgi.Wrap(errors.New("httpapi: response writer does not support flushing")))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Receive():
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handlers) writeNotFoundOrInternal(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, bbscgi.NotFound("not found"))
		return
	}
	h.writeError(w, bbscgi.Wrap(err))
}

func (h *Handlers) writeError(w http.ResponseWriter, err *bbscgi.Error) {
	if err.Kind == bbscgi.KindInternal {
		h.logger.Error().Err(err.Cause).Msg("httpapi: internal error")
	}
	h.writeHTML(w, err.Kind.Status(), err.Reason)
}

func (h *Handlers) writeHTML(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
	body, err := encodeHTMLFragment(message)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
