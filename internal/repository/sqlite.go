package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eddist-go/bbs/internal/archiver"
	"github.com/eddist-go/bbs/internal/authedtoken"
	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/board"
	"github.com/eddist-go/bbs/internal/database"
	"github.com/eddist-go/bbs/internal/ipaddr"
	"github.com/eddist-go/bbs/internal/metadent"
	"github.com/eddist-go/bbs/internal/ngword"
	"github.com/eddist-go/bbs/internal/restriction"
)

// SQLite is the modernc.org/sqlite-backed implementation of BbsRepository,
// AuthedTokenRepository, and UserRepository, querying the tables created by
// internal/database/migrations against a *database.DB.
type SQLite struct {
	db *database.DB
}

// NewSQLite wraps db as a SQLite-backed repository.
func NewSQLite(db *database.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) BoardByKey(ctx context.Context, boardKey string) (board.Board, board.Info, error) {
	var b board.Board
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, board_key, default_name FROM boards WHERE board_key = ?
	`, boardKey)
	var id string
	if err := row.Scan(&id, &b.Name, &b.BoardKey, &b.DefaultName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return board.Board{}, board.Info{}, ErrNotFound
		}
		return board.Board{}, board.Info{}, fmt.Errorf("repository: board by key: %w", err)
	}
	boardID, err := uuid.Parse(id)
	if err != nil {
		return board.Board{}, board.Info{}, fmt.Errorf("repository: parsing board id: %w", err)
	}
	b.ID = boardID

	info, err := s.infoByBoardID(ctx, boardID)
	if err != nil {
		return board.Board{}, board.Info{}, err
	}
	return b, info, nil
}

func (s *SQLite) infoByBoardID(ctx context.Context, boardID uuid.UUID) (board.Info, error) {
	var info board.Info
	var createdAt, updatedAt string
	var readOnly int
	row := s.db.QueryRowContext(ctx, `
		SELECT board_id, local_rules, base_thread_creation_span_sec,
			base_response_creation_span_sec, max_thread_name_byte_length,
			max_author_name_byte_length, max_email_byte_length,
			max_response_body_byte_length, max_response_body_lines,
			threads_archive_cron, threads_archive_trigger_thread_count,
			created_at, updated_at, read_only
		FROM boards_info WHERE board_id = ?
	`, boardID.String())
	var id string
	if err := row.Scan(&id, &info.LocalRules, &info.BaseThreadCreationSpanSec,
		&info.BaseResponseCreationSpanSec, &info.MaxThreadNameByteLength,
		&info.MaxAuthorNameByteLength, &info.MaxEmailByteLength,
		&info.MaxResponseBodyByteLength, &info.MaxResponseBodyLines,
		&info.ThreadsArchiveCron, &info.ThreadsArchiveTriggerThreadCount,
		&createdAt, &updatedAt, &readOnly); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return board.Info{}, ErrNotFound
		}
		return board.Info{}, fmt.Errorf("repository: board info: %w", err)
	}
	info.ID = boardID
	info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	info.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	info.ReadOnly = readOnly != 0
	return info, nil
}

func (s *SQLite) ThreadByNumber(ctx context.Context, boardID uuid.UUID, threadNumber int64) (bbsdomain.Thread, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, board_id, thread_number, last_modified_at, sage_last_modified_at,
			title, authed_token_id, metadent, response_count, no_pool, active, archived
		FROM threads WHERE board_id = ? AND thread_number = ?
	`, boardID.String(), threadNumber)
	return scanThread(row)
}

func (s *SQLite) ThreadsByBoard(ctx context.Context, boardID uuid.UUID) ([]bbsdomain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, thread_number, last_modified_at, sage_last_modified_at,
			title, authed_token_id, metadent, response_count, no_pool, active, archived
		FROM threads WHERE board_id = ? AND archived = 0
		ORDER BY last_modified_at DESC
	`, boardID.String())
	if err != nil {
		return nil, fmt.Errorf("repository: threads by board: %w", err)
	}
	defer rows.Close()

	var out []bbsdomain.Thread
	for rows.Next() {
		th, err := scanThreadRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (bbsdomain.Thread, error) {
	var th bbsdomain.Thread
	var id, boardID, authedTokenID, lastModified, sageLastModified, metadentStr string
	var noPool, active, archived int
	if err := row.Scan(&id, &boardID, &th.ThreadNumber, &lastModified, &sageLastModified,
		&th.Title, &authedTokenID, &metadentStr, &th.ResponseCount, &noPool, &active, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bbsdomain.Thread{}, ErrNotFound
		}
		return bbsdomain.Thread{}, fmt.Errorf("repository: scanning thread: %w", err)
	}
	return finishThread(th, id, boardID, authedTokenID, lastModified, sageLastModified, metadentStr, noPool, active, archived)
}

func scanThreadRows(rows *sql.Rows) (bbsdomain.Thread, error) {
	var th bbsdomain.Thread
	var id, boardID, authedTokenID, lastModified, sageLastModified, metadentStr string
	var noPool, active, archived int
	if err := rows.Scan(&id, &boardID, &th.ThreadNumber, &lastModified, &sageLastModified,
		&th.Title, &authedTokenID, &metadentStr, &th.ResponseCount, &noPool, &active, &archived); err != nil {
		return bbsdomain.Thread{}, fmt.Errorf("repository: scanning thread: %w", err)
	}
	return finishThread(th, id, boardID, authedTokenID, lastModified, sageLastModified, metadentStr, noPool, active, archived)
}

func finishThread(th bbsdomain.Thread, id, boardID, authedTokenID, lastModified, sageLastModified, metadentStr string, noPool, active, archived int) (bbsdomain.Thread, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return bbsdomain.Thread{}, fmt.Errorf("repository: parsing thread id: %w", err)
	}
	parsedBoardID, err := uuid.Parse(boardID)
	if err != nil {
		return bbsdomain.Thread{}, fmt.Errorf("repository: parsing board id: %w", err)
	}
	th.ID = parsedID
	th.BoardID = parsedBoardID
	if authedTokenID != "" {
		if parsed, err := uuid.Parse(authedTokenID); err == nil {
			th.AuthedTokenID = parsed
		}
	}
	th.LastModifiedAt, _ = time.Parse(time.RFC3339, lastModified)
	th.SageLastModifiedAt, _ = time.Parse(time.RFC3339, sageLastModified)
	th.Metadent = metadent.Parse(metadentStr)
	th.NoPool = noPool != 0
	th.Active = active != 0
	th.Archived = archived != 0
	return th, nil
}

func (s *SQLite) ResponsesByThread(ctx context.Context, threadID uuid.UUID) ([]bbsdomain.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, board_id, body, name, mail, author_id, ip_addr,
			authed_token_id, user_agent, asn_num, tinker_cookie, created_at,
			res_order, is_abone
		FROM responses WHERE thread_id = ? ORDER BY res_order ASC
	`, threadID.String())
	if err != nil {
		return nil, fmt.Errorf("repository: responses by thread: %w", err)
	}
	defer rows.Close()

	var out []bbsdomain.Response
	for rows.Next() {
		var r bbsdomain.Response
		var id, tid, bid, authedTokenID, createdAt string
		var asnNum int64
		var isAbone int
		if err := rows.Scan(&id, &tid, &bid, &r.Body, &r.Name, &r.Mail, &r.AuthorID,
			&r.IPAddr, &authedTokenID, &r.ClientInfo.UserAgent, &asnNum,
			&r.ClientInfo.TinkerCookie, &createdAt, &r.ResOrder, &isAbone); err != nil {
			return nil, fmt.Errorf("repository: scanning response: %w", err)
		}
		if parsed, err := uuid.Parse(id); err == nil {
			r.ID = parsed
		}
		if parsed, err := uuid.Parse(tid); err == nil {
			r.ThreadID = parsed
		}
		if parsed, err := uuid.Parse(bid); err == nil {
			r.BoardID = parsed
		}
		if authedTokenID != "" {
			if parsed, err := uuid.Parse(authedTokenID); err == nil {
				r.AuthedTokenID = parsed
			}
		}
		r.ClientInfo.ASNNum = uint32(asnNum)
		r.ClientInfo.IPAddr = r.IPAddr
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.IsAbone = isAbone != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) NgWordsByBoardKey(ctx context.Context, boardKey string) ([]ngword.Word, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, word, created_at, updated_at FROM ng_words WHERE board_key = ?
	`, boardKey)
	if err != nil {
		return nil, fmt.Errorf("repository: ng words: %w", err)
	}
	defer rows.Close()

	var out []ngword.Word
	for rows.Next() {
		var w ngword.Word
		var id, createdAt, updatedAt string
		if err := rows.Scan(&id, &w.Name, &w.Word, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("repository: scanning ng word: %w", err)
		}
		if parsed, err := uuid.Parse(id); err == nil {
			w.ID = parsed
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLite) RestrictionRules(ctx context.Context) ([]restriction.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, value, filter_expression, active FROM user_restriction_rules WHERE active = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("repository: restriction rules: %w", err)
	}
	defer rows.Close()

	var out []restriction.Rule
	for rows.Next() {
		var r restriction.Rule
		var ruleType string
		var active int
		if err := rows.Scan(&r.Name, &ruleType, &r.Value, &r.Expr, &active); err != nil {
			return nil, fmt.Errorf("repository: scanning restriction rule: %w", err)
		}
		r.Type = restriction.RuleType(ruleType)
		r.Active = active != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateThread(ctx context.Context, in bbsdomain.CreatingThread) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO threads (id, board_id, thread_number, last_modified_at,
				sage_last_modified_at, title, authed_token_id, metadent,
				response_count, no_pool, active, archived)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 0, 1, 0)
		`, in.ThreadID.String(), in.BoardID.String(), in.ThreadNumber,
			in.CreatedAt.UTC().Format(time.RFC3339), in.CreatedAt.UTC().Format(time.RFC3339),
			in.Title, in.AuthedTokenID.String(), in.Metadent.String())
		if err != nil {
			return fmt.Errorf("inserting thread: %w", database.ClassifyError(err))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO responses (id, thread_id, board_id, body, name, mail,
				author_id, ip_addr, authed_token_id, user_agent, asn_num,
				tinker_cookie, created_at, res_order, is_abone)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0)
		`, in.ResponseID.String(), in.ThreadID.String(), in.BoardID.String(), in.Body,
			in.Name, in.Mail, in.AuthorID, in.IPAddr, in.AuthedTokenID.String(),
			in.ClientInfo.UserAgent, in.ClientInfo.ASNNum, in.ClientInfo.TinkerCookie,
			in.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("inserting opening response: %w", database.ClassifyError(err))
		}
		return nil
	})
}

func (s *SQLite) CreateResponse(ctx context.Context, in bbsdomain.CreatingRes) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO responses (id, thread_id, board_id, body, name, mail,
				author_id, ip_addr, authed_token_id, user_agent, asn_num,
				tinker_cookie, created_at, res_order, is_abone)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		`, in.ID.String(), in.ThreadID.String(), in.BoardID.String(), in.Body, in.Name,
			in.Mail, in.AuthorID, in.IPAddr, in.AuthedTokenID.String(),
			in.ClientInfo.UserAgent, in.ClientInfo.ASNNum, in.ClientInfo.TinkerCookie,
			in.CreatedAt.UTC().Format(time.RFC3339), in.ResOrder)
		if err != nil {
			return fmt.Errorf("inserting response: %w", database.ClassifyError(err))
		}

		if in.IsSage {
			_, err = tx.ExecContext(ctx, `
				UPDATE threads SET response_count = response_count + 1 WHERE id = ?
			`, in.ThreadID.String())
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE threads SET response_count = response_count + 1, last_modified_at = ?
				WHERE id = ?
			`, in.CreatedAt.UTC().Format(time.RFC3339), in.ThreadID.String())
		}
		if err != nil {
			return fmt.Errorf("advancing thread counters: %w", err)
		}
		return nil
	})
}

// Insert, ByID, ByToken, Update, RevokeByID, RevokeByOriginIP implement
// AuthedTokenRepository.

func (s *SQLite) Insert(ctx context.Context, t authedtoken.AuthedToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authed_tokens (id, token, origin_ip, reduced_ip, writing_ua,
			authed_ua, auth_code, created_at, authed_at, validity, revoked,
			last_wrote_at, registered_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID.String(), t.Token, t.OriginIP.String(), t.ReducedIP, t.WritingUA, t.AuthedUA,
		t.AuthCode, t.CreatedAt.UTC().Format(time.RFC3339), nullableTime(t.AuthedAt),
		boolToInt(t.Validity), boolToInt(t.Revoked), nullableTime(t.LastWroteAt),
		nullableUUID(t.RegisteredUserID))
	if err != nil {
		return fmt.Errorf("repository: inserting authed token: %w", database.ClassifyError(err))
	}
	return nil
}

func (s *SQLite) ByID(ctx context.Context, id uuid.UUID) (authedtoken.AuthedToken, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, origin_ip, reduced_ip, writing_ua, authed_ua, auth_code,
			created_at, authed_at, validity, revoked, last_wrote_at, registered_user_id
		FROM authed_tokens WHERE id = ?
	`, id.String())
	return scanAuthedToken(row)
}

func (s *SQLite) ByToken(ctx context.Context, token string) (authedtoken.AuthedToken, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, origin_ip, reduced_ip, writing_ua, authed_ua, auth_code,
			created_at, authed_at, validity, revoked, last_wrote_at, registered_user_id
		FROM authed_tokens WHERE token = ?
	`, token)
	return scanAuthedToken(row)
}

func scanAuthedToken(row rowScanner) (authedtoken.AuthedToken, error) {
	var t authedtoken.AuthedToken
	var id, originIP, createdAt string
	var authedAt, lastWroteAt, registeredUserID sql.NullString
	var validity, revoked int
	if err := row.Scan(&id, &t.Token, &originIP, &t.ReducedIP, &t.WritingUA, &t.AuthedUA,
		&t.AuthCode, &createdAt, &authedAt, &validity, &revoked, &lastWroteAt, &registeredUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authedtoken.AuthedToken{}, ErrNotFound
		}
		return authedtoken.AuthedToken{}, fmt.Errorf("repository: scanning authed token: %w", err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return authedtoken.AuthedToken{}, fmt.Errorf("repository: parsing token id: %w", err)
	}
	t.ID = parsedID
	t.OriginIP = ipaddr.IP(originIP)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.Validity = validity != 0
	t.Revoked = revoked != 0
	if authedAt.Valid {
		parsed, _ := time.Parse(time.RFC3339, authedAt.String)
		t.AuthedAt = &parsed
	}
	if lastWroteAt.Valid {
		parsed, _ := time.Parse(time.RFC3339, lastWroteAt.String)
		t.LastWroteAt = &parsed
	}
	if registeredUserID.Valid {
		if parsed, err := uuid.Parse(registeredUserID.String); err == nil {
			t.RegisteredUserID = &parsed
		}
	}
	return t, nil
}

func (s *SQLite) Update(ctx context.Context, t authedtoken.AuthedToken) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE authed_tokens SET token = ?, origin_ip = ?, reduced_ip = ?,
			writing_ua = ?, authed_ua = ?, auth_code = ?, authed_at = ?,
			validity = ?, revoked = ?, last_wrote_at = ?, registered_user_id = ?
		WHERE id = ?
	`, t.Token, t.OriginIP.String(), t.ReducedIP, t.WritingUA, t.AuthedUA, t.AuthCode,
		nullableTime(t.AuthedAt), boolToInt(t.Validity), boolToInt(t.Revoked),
		nullableTime(t.LastWroteAt), nullableUUID(t.RegisteredUserID), t.ID.String())
	if err != nil {
		return fmt.Errorf("repository: updating authed token: %w", database.ClassifyError(err))
	}
	return checkRowsAffected(res)
}

func (s *SQLite) RevokeByID(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE authed_tokens SET revoked = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("repository: revoking token: %w", err)
	}
	return nil
}

func (s *SQLite) RevokeByOriginIP(ctx context.Context, originIP string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE authed_tokens SET revoked = 1 WHERE origin_ip = ?`, originIP)
	if err != nil {
		return fmt.Errorf("repository: revoking tokens by origin ip: %w", err)
	}
	return nil
}

// UserByID, ByIdpSub, BindAuthedToken implement UserRepository.

func (s *SQLite) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	var enabled int
	row := s.db.QueryRowContext(ctx, `SELECT id, name, enabled FROM users WHERE id = ?`, id.String())
	var scannedID string
	if err := row.Scan(&scannedID, &u.Name, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("repository: user by id: %w", err)
	}
	u.ID = id
	u.Enabled = enabled != 0
	return u, nil
}

func (s *SQLite) ByIdpSub(ctx context.Context, idpName, idpSub string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.enabled FROM users u
		JOIN user_idp_bindings b ON b.user_id = u.id
		WHERE b.idp_name = ? AND b.idp_sub = ?
	`, idpName, idpSub)
	var id string
	var u User
	var enabled int
	if err := row.Scan(&id, &u.Name, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("repository: user by idp sub: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return User{}, fmt.Errorf("repository: parsing user id: %w", err)
	}
	u.ID = parsed
	u.Enabled = enabled != 0
	return u, nil
}

func (s *SQLite) BindAuthedToken(ctx context.Context, userID, authedTokenID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE authed_tokens SET registered_user_id = ? WHERE id = ?
	`, userID.String(), authedTokenID.String())
	if err != nil {
		return fmt.Errorf("repository: binding authed token: %w", err)
	}
	return nil
}

// BoardsWithArchiveCron, ThreadsForBoard, ArchiveThreads implement
// archiver.Repository.

func (s *SQLite) BoardsWithArchiveCron(ctx context.Context) ([]archiver.BoardPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT board_id, threads_archive_cron, threads_archive_trigger_thread_count
		FROM boards_info WHERE threads_archive_cron != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("repository: boards with archive cron: %w", err)
	}
	defer rows.Close()

	var out []archiver.BoardPolicy
	for rows.Next() {
		var boardID string
		var triggerCount int
		var p archiver.BoardPolicy
		if err := rows.Scan(&boardID, &p.ThreadsArchiveCron, &triggerCount); err != nil {
			return nil, fmt.Errorf("repository: scanning board policy: %w", err)
		}
		parsed, err := uuid.Parse(boardID)
		if err != nil {
			return nil, fmt.Errorf("repository: parsing board id: %w", err)
		}
		p.BoardID = parsed
		if triggerCount > 0 {
			p.TriggerThreadCount = triggerCount
			p.HasTriggerThreadCount = true
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) ThreadsForBoard(ctx context.Context, boardID uuid.UUID) ([]archiver.ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, active, archived, last_modified_at FROM threads
		WHERE board_id = ? AND archived = 0
	`, boardID.String())
	if err != nil {
		return nil, fmt.Errorf("repository: threads for board: %w", err)
	}
	defer rows.Close()

	var out []archiver.ThreadSummary
	for rows.Next() {
		var id, lastModified string
		var active, archived int
		if err := rows.Scan(&id, &active, &archived, &lastModified); err != nil {
			return nil, fmt.Errorf("repository: scanning thread summary: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("repository: parsing thread id: %w", err)
		}
		ts := archiver.ThreadSummary{ID: parsed, Active: active != 0, Archived: archived != 0}
		ts.LastModifiedAt, _ = time.Parse(time.RFC3339, lastModified)
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLite) ArchiveThreads(ctx context.Context, threadIDs []uuid.UUID) error {
	if len(threadIDs) == 0 {
		return nil
	}
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		for _, id := range threadIDs {
			if _, err := tx.ExecContext(ctx, `UPDATE threads SET archived = 1 WHERE id = ?`, id.String()); err != nil {
				return fmt.Errorf("repository: archiving thread: %w", err)
			}
		}
		return nil
	})
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
