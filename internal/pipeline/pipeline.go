package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/authedtoken"
	"github.com/eddist-go/bbs/internal/bbscgi"
	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/board"
	"github.com/eddist-go/bbs/internal/ipaddr"
	"github.com/eddist-go/bbs/internal/metrics"
	"github.com/eddist-go/bbs/internal/ngword"
	"github.com/eddist-go/bbs/internal/plugin"
	"github.com/eddist-go/bbs/internal/pubsub"
	"github.com/eddist-go/bbs/internal/repository"
	"github.com/eddist-go/bbs/internal/restriction"
	"github.com/eddist-go/bbs/internal/sjis"
	"github.com/eddist-go/bbs/internal/streaming"
	"github.com/eddist-go/bbs/internal/tinker"
)

// authorIDSalt separates the author_id hash's input space from any other
// use of the token id elsewhere in the system.
const authorIDSalt = "eddist-go:author-id:v1"

// Pipeline wires together every dependency the write-path state machine
// consults, in the order spec'd: tokens, restriction, board, NG-words,
// rate, plugins, storage, pub/sub.
type Pipeline struct {
	tokens       repository.AuthedTokenRepository
	bbs          repository.BbsRepository
	restrictions *restriction.Engine
	ngWords      *ngword.ReadingService
	cookies      *tinker.CookieSigner
	plugins      *plugin.Runtime
	streams      *streaming.Manager
	broker       *pubsub.Publisher
	logger       zerolog.Logger
}

// New builds a Pipeline from its dependencies.
func New(
	tokens repository.AuthedTokenRepository,
	bbs repository.BbsRepository,
	restrictions *restriction.Engine,
	ngWords *ngword.ReadingService,
	cookies *tinker.CookieSigner,
	plugins *plugin.Runtime,
	streams *streaming.Manager,
	broker *pubsub.Publisher,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		tokens:       tokens,
		bbs:          bbs,
		restrictions: restrictions,
		ngWords:      ngWords,
		cookies:      cookies,
		plugins:      plugins,
		streams:      streams,
		broker:       broker,
		logger:       logger,
	}
}

// Execute runs the full write-path state machine for req as of now,
// returning either the persisted write's Result or a typed error: an
// *ActivationRequiredError when the token needs out-of-band activation, or
// a *bbscgi.Error for every other rejection.
func (p *Pipeline) Execute(ctx context.Context, req Request, now time.Time) (Result, error) {
	start := time.Now()
	kind := "response"
	if req.IsThreadCreation() {
		kind = "thread"
	}
	defer func(start time.Time) {
		metrics.RecordPipelineStage("execute", "total", time.Since(start))
	}(start)

	token, actErr := p.resolveCookie(ctx, req, now)
	if actErr != nil {
		return Result{}, actErr
	}

	if err := p.checkRestriction(ctx, req); err != nil {
		return Result{}, err
	}

	b, info, err := p.lookupBoard(ctx, req.BoardKey)
	if err != nil {
		return Result{}, err
	}

	d := draft{Name: req.From, Mail: req.Mail, Body: req.Message, Title: req.Subject}

	if err := p.validateContent(d, req.IsThreadCreation(), info); err != nil {
		return Result{}, err
	}

	if err := p.checkNgWords(ctx, req.BoardKey, d, now); err != nil {
		return Result{}, err
	}

	if err := p.checkRate(token, req.IsThreadCreation(), info, now); err != nil {
		return Result{}, err
	}

	hook := plugin.BeforePostResponse
	if req.IsThreadCreation() {
		hook = plugin.BeforePostThread
	}
	d, err = p.runBeforeHooks(hook, d)
	if err != nil {
		return Result{}, err
	}

	clientInfo := bbsdomain.ClientInfo{
		UserAgent:    req.UserAgent,
		ASNNum:       uint32(req.ASN),
		IPAddr:       req.IP,
		TinkerCookie: req.TinkerCookie,
	}

	persistStart := time.Now()
	result, item, threadID, nextToken, err := p.persist(ctx, b, info, token, d, req, clientInfo, now)
	metrics.RecordPipelineStage("persist", outcomeLabel(err), time.Since(persistStart))
	if err != nil {
		metrics.RecordPipelineWrite(kind, "error")
		return Result{}, err
	}
	metrics.RecordPipelineWrite(kind, "ok")

	afterHook := plugin.AfterPostResponse
	if req.IsThreadCreation() {
		afterHook = plugin.AfterPostThread
	}
	p.runAfterHooks(afterHook, d)

	p.publish(ctx, item, threadID)

	tinkerJWT, err := p.renderTinkerCookie(nextToken, now)
	if err != nil {
		return Result{}, bbscgi.Wrap(err)
	}
	result.SetToken = nextToken.Token
	result.SetTinkerJWT = tinkerJWT

	return result, nil
}

// resolveCookie resolves req's write cookie to a usable AuthedToken,
// issuing a fresh one and failing RequiresActivation if none was presented
// or the presented one is unknown, unactivated, expired, or revoked.
func (p *Pipeline) resolveCookie(ctx context.Context, req Request, now time.Time) (authedtoken.AuthedToken, error) {
	if req.CookieToken == "" {
		return p.issueNewToken(ctx, req, now)
	}

	t, err := p.tokens.ByToken(ctx, req.CookieToken)
	if err != nil {
		return p.issueNewToken(ctx, req, now)
	}

	if t.Revoked {
		return p.issueNewToken(ctx, req, now)
	}

	if !t.Validity {
		if t.IsActivationExpired(now) {
			return p.issueNewToken(ctx, req, now)
		}
		return authedtoken.AuthedToken{}, activationRequired(t.Token, t.AuthCode)
	}

	return t, nil
}

func (p *Pipeline) issueNewToken(ctx context.Context, req Request, now time.Time) (authedtoken.AuthedToken, error) {
	t, err := authedtoken.New(ipFromRequest(req), req.UserAgent, now)
	if err != nil {
		return authedtoken.AuthedToken{}, bbscgi.Wrap(err)
	}
	if err := p.tokens.Insert(ctx, t); err != nil {
		return authedtoken.AuthedToken{}, bbscgi.Wrap(err)
	}
	return authedtoken.AuthedToken{}, activationRequired(t.Token, t.AuthCode)
}

func (p *Pipeline) checkRestriction(ctx context.Context, req Request) error {
	if p.restrictions == nil {
		return nil
	}
	matched, err := p.restrictions.Evaluate(restriction.CheckInput{IP: req.IP, ASN: req.ASN, UserAgent: req.UserAgent})
	if err != nil {
		return bbscgi.Wrap(err)
	}
	if matched != nil {
		return bbscgi.Forbidden(fmt.Sprintf("restricted by rule %q", matched.Name))
	}
	return nil
}

func (p *Pipeline) lookupBoard(ctx context.Context, boardKey string) (board.Board, board.Info, error) {
	b, info, err := p.bbs.BoardByKey(ctx, boardKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return board.Board{}, board.Info{}, bbscgi.NotFound("board not found")
		}
		return board.Board{}, board.Info{}, bbscgi.Wrap(err)
	}
	if info.ReadOnly {
		return board.Board{}, board.Info{}, bbscgi.Forbidden("board is read-only")
	}
	return b, info, nil
}

func (p *Pipeline) validateContent(d draft, isThreadCreation bool, info board.Info) error {
	if isThreadCreation && len(d.Title) > info.MaxThreadNameByteLength {
		return bbscgi.BadRequest("thread title too long")
	}
	if len(d.Name) > info.MaxAuthorNameByteLength {
		return bbscgi.BadRequest("name too long")
	}
	if len(d.Mail) > info.MaxEmailByteLength {
		return bbscgi.BadRequest("mail too long")
	}
	if len(d.Body) > info.MaxResponseBodyByteLength {
		return bbscgi.BadRequest("body too long")
	}
	if d.Body == "" {
		return bbscgi.BadRequest("body is empty")
	}
	if lines := countLines(d.Body); lines > info.MaxResponseBodyLines {
		return bbscgi.BadRequest("too many lines")
	}
	if _, err := sjis.EncodeStrict(d.Body); err != nil {
		return bbscgi.BadRequest("body is not representable in Shift_JIS")
	}
	if _, err := sjis.EncodeStrict(d.Name); err != nil {
		return bbscgi.BadRequest("name is not representable in Shift_JIS")
	}
	if _, err := sjis.EncodeStrict(d.Title); err != nil {
		return bbscgi.BadRequest("title is not representable in Shift_JIS")
	}
	return nil
}

func countLines(body string) int {
	lines := 1
	for _, c := range body {
		if c == '\n' {
			lines++
		}
	}
	return lines
}

func (p *Pipeline) checkNgWords(ctx context.Context, boardKey string, d draft, now time.Time) error {
	if p.ngWords == nil {
		return nil
	}
	words, err := p.ngWords.NgWords(ctx, boardKey, now)
	if err != nil {
		return bbscgi.Wrap(err)
	}
	content := ngword.Content{Body: d.Body, Mail: d.Mail, AuthorName: d.Name, Title: d.Title}
	if ngword.Contains(content, words) {
		return bbscgi.Forbidden("ng word")
	}
	return nil
}

func (p *Pipeline) checkRate(token authedtoken.AuthedToken, isThreadCreation bool, info board.Info, now time.Time) error {
	if token.LastWroteAt == nil {
		return nil
	}
	span := time.Duration(info.BaseResponseCreationSpanSec) * time.Second
	if isThreadCreation {
		span = time.Duration(info.BaseThreadCreationSpanSec) * time.Second
	}
	if now.Sub(*token.LastWroteAt) < span {
		metrics.RecordRateLimitRejection("write-span")
		return bbscgi.TooSoon("posting too fast")
	}
	return nil
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Pipeline) runBeforeHooks(hook plugin.HookPoint, d draft) (draft, error) {
	if p.plugins == nil {
		return d, nil
	}
	verdict, err := p.plugins.RunBefore(hook, plugin.Draft{Name: d.Name, Mail: d.Mail, Body: d.Body, Title: d.Title})
	if err != nil {
		return d, bbscgi.Wrap(err)
	}
	switch verdict.Action {
	case plugin.ActionDeny:
		return d, bbscgi.Forbidden(verdict.Reason)
	case plugin.ActionModify:
		if verdict.Fields != nil {
			d.Name, d.Mail, d.Body, d.Title = verdict.Fields.Name, verdict.Fields.Mail, verdict.Fields.Body, verdict.Fields.Title
		}
	}
	return d, nil
}

func (p *Pipeline) runAfterHooks(hook plugin.HookPoint, d draft) {
	if p.plugins == nil {
		return
	}
	p.plugins.RunAfter(hook, plugin.Draft{Name: d.Name, Mail: d.Mail, Body: d.Body, Title: d.Title})
}

// persist runs the persistence transaction and returns the Result shape,
// the PubSubItem to publish, and the AuthedToken's advanced state.
func (p *Pipeline) persist(
	ctx context.Context,
	b board.Board,
	info board.Info,
	token authedtoken.AuthedToken,
	d draft,
	req Request,
	clientInfo bbsdomain.ClientInfo,
	now time.Time,
) (Result, bbsdomain.PubSubItem, uuid.UUID, authedtoken.AuthedToken, error) {
	nextToken := token.RecordWrite(now)

	if req.IsThreadCreation() {
		threadID, responseID := uuid.New(), uuid.New()
		threadNumber := now.Unix()
		authorID := deriveAuthorID(token.ID, threadNumber, now)

		in := bbsdomain.CreatingThread{
			ThreadID:      threadID,
			ResponseID:    responseID,
			Title:         d.Title,
			ThreadNumber:  threadNumber,
			Body:          d.Body,
			Name:          d.Name,
			Mail:          d.Mail,
			CreatedAt:     now,
			AuthorID:      authorID,
			AuthedTokenID: token.ID,
			IPAddr:        req.IP,
			BoardID:       b.ID,
			ClientInfo:    clientInfo,
		}

		if err := p.bbs.CreateThread(ctx, in); err != nil {
			return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.Wrap(err)
		}
		if err := p.tokens.Update(ctx, nextToken); err != nil {
			return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.Wrap(err)
		}

		item := bbsdomain.PubSubItem{Kind: bbsdomain.KindCreatingThread, CreatingThread: &in}
		return Result{ThreadNumber: threadNumber, ResOrder: 1, CreatingThread: &in}, item, threadID, nextToken, nil
	}

	thread, err := p.bbs.ThreadByNumber(ctx, b.ID, *req.ThreadNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.NotFound("thread not found")
		}
		return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.Wrap(err)
	}
	if thread.Archived {
		return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.NotFound("thread is archived")
	}

	resOrder := int(thread.ResponseCount) + 1
	authorID := deriveAuthorID(token.ID, thread.ThreadNumber, now)

	in := bbsdomain.CreatingRes{
		ID:            uuid.New(),
		CreatedAt:     now,
		Body:          d.Body,
		Name:          d.Name,
		Mail:          d.Mail,
		AuthorID:      authorID,
		AuthedTokenID: token.ID,
		IPAddr:        req.IP,
		ThreadID:      thread.ID,
		BoardID:       b.ID,
		ClientInfo:    clientInfo,
		ResOrder:      resOrder,
		IsSage:        d.Mail == sageMail,
	}

	if err := p.bbs.CreateResponse(ctx, in); err != nil {
		p.publish(ctx, bbsdomain.PubSubItem{Kind: bbsdomain.KindCreatingResFailed, CreatingRes: &in}, thread.ID)
		return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.Wrap(err)
	}
	if err := p.tokens.Update(ctx, nextToken); err != nil {
		return Result{}, bbsdomain.PubSubItem{}, uuid.UUID{}, token, bbscgi.Wrap(err)
	}

	item := bbsdomain.PubSubItem{Kind: bbsdomain.KindCreatingRes, CreatingRes: &in}
	return Result{ThreadNumber: thread.ThreadNumber, ResOrder: resOrder, CreatingRes: &in}, item, thread.ID, nextToken, nil
}

func (p *Pipeline) publish(ctx context.Context, item bbsdomain.PubSubItem, threadID uuid.UUID) {
	if p.broker != nil {
		p.broker.Publish(ctx, item)
	}
	if p.streams != nil {
		payload, err := json.Marshal(item)
		if err != nil {
			p.logger.Error().Err(err).Msg("marshal stream payload failed")
			return
		}
		p.streams.Publish(threadID, payload)
	}
}

func (p *Pipeline) renderTinkerCookie(token authedtoken.AuthedToken, now time.Time) (string, error) {
	if p.cookies == nil {
		return "", nil
	}
	t := tinker.New(token.Token, now)
	if token.LastWroteAt != nil {
		t = t.ActionOnWrite(now)
	}
	return p.cookies.Sign(t, now)
}

func deriveAuthorID(tokenID uuid.UUID, threadNumber int64, now time.Time) string {
	h := sha256.New()
	h.Write([]byte(authorIDSalt))
	h.Write(tokenID[:])
	fmt.Fprintf(h, "%d", threadNumber)
	fmt.Fprintf(h, "%s", now.UTC().Format("2006-01-02"))
	return fmt.Sprintf("%x", h.Sum(nil))[:8]
}

func ipFromRequest(req Request) ipaddr.IP {
	return ipaddr.IP(req.IP)
}
