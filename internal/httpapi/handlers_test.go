package httpapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/board"
	"github.com/eddist-go/bbs/internal/httpapi"
	"github.com/eddist-go/bbs/internal/pipeline"
	"github.com/eddist-go/bbs/internal/repository"
	"github.com/eddist-go/bbs/internal/restriction"
	"github.com/eddist-go/bbs/internal/sjis"
	"github.com/eddist-go/bbs/internal/streaming"
)

func seedTestBoard(repo *repository.Memory) board.Board {
	b := board.Board{ID: uuid.New(), Name: "Test Board", BoardKey: "test"}
	info := board.Info{
		ID:                          b.ID,
		BaseThreadCreationSpanSec:   60,
		BaseResponseCreationSpanSec: 10,
		MaxThreadNameByteLength:     64,
		MaxAuthorNameByteLength:     32,
		MaxEmailByteLength:          32,
		MaxResponseBodyByteLength:   1024,
		MaxResponseBodyLines:        30,
	}
	repo.SeedBoard(b, info)
	return b
}

func newTestHandlers(t *testing.T) (*httpapi.Handlers, *repository.Memory) {
	t.Helper()
	repo := repository.NewMemory()
	engine, err := restriction.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	p := pipeline.New(repo, repo, engine, nil, nil, nil, streaming.NewManager(), nil, zerolog.Nop())
	h := httpapi.New(p, repo, repo, streaming.NewManager(), httpapi.Env{}, zerolog.Nop())
	return h, repo
}

func sjisForm(values url.Values) string {
	var parts []string
	for k, v := range values {
		encoded, err := sjis.Encode(v[0])
		if err != nil {
			panic(err)
		}
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(string(encoded)))
	}
	return strings.Join(parts, "&")
}

func TestWriteBBSRequiresActivationThenSucceeds(t *testing.T) {
	h, repo := newTestHandlers(t)
	seedTestBoard(repo)

	form := sjisForm(url.Values{
		"bbs":     {"test"},
		"FROM":    {"nanashi"},
		"mail":    {""},
		"MESSAGE": {"hello world"},
		"subject": {"first thread"},
		"submit":  {"submit"},
	})

	req := httptest.NewRequest(http.MethodPost, "/test/bbs.cgi", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.WriteBBS(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("first write status = %d, want 200 (activation page)", rec.Code)
	}

	var cookieToken string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "edge-token" {
			cookieToken = c.Value
		}
	}
	if cookieToken == "" {
		t.Fatalf("no edge-token cookie set on first write")
	}

	tok, err := repo.ByToken(context.Background(), cookieToken)
	if err != nil {
		t.Fatalf("ByToken() error = %v", err)
	}
	activated, err := tok.Activate(tok.AuthCode, "test-agent", time.Now())
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := repo.Update(context.Background(), activated); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/test/bbs.cgi", strings.NewReader(form))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req2.AddCookie(&http.Cookie{Name: "edge-token", Value: cookieToken})
	rec2 := httptest.NewRecorder()
	h.WriteBBS(rec2, req2)

	if rec2.Code != http.StatusOK {
		body, _ := io.ReadAll(rec2.Result().Body)
		t.Fatalf("second write status = %d, body = %q", rec2.Code, body)
	}
}

func TestSubjectTxtAndDatRoundTrip(t *testing.T) {
	h, repo := newTestHandlers(t)
	b := seedTestBoard(repo)

	now := time.Now()
	in := bbsdomain.CreatingThread{
		ThreadID:     uuid.New(),
		ResponseID:   uuid.New(),
		Title:        "opening post",
		ThreadNumber: 1,
		Body:         "hello",
		Name:         "nanashi",
		CreatedAt:    now,
		BoardID:      b.ID,
	}
	if err := repo.CreateThread(context.Background(), in); err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/test/subject.txt", nil)
	req.SetPathValue("board_key", "test")
	rec := httptest.NewRecorder()
	h.SubjectTxt(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("SubjectTxt status = %d, want 200", rec.Code)
	}
	decoded, err := sjis.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !strings.Contains(decoded, "opening post") {
		t.Fatalf("subject.txt body = %q, want title present", decoded)
	}

	datReq := httptest.NewRequest(http.MethodGet, "/test/dat/1.dat", nil)
	datReq.SetPathValue("board_key", "test")
	datReq.SetPathValue("thread_number", "1")
	datRec := httptest.NewRecorder()
	h.Dat(datRec, datReq)

	if datRec.Code != http.StatusOK {
		t.Fatalf("Dat status = %d, want 200", datRec.Code)
	}
}
