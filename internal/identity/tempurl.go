package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// tempURLLen matches the original service's registration-query length.
const tempURLLen = 5

// tempURLTTL is the window during which a minted registration URL is
// redeemable.
const tempURLTTL = 3 * time.Minute

// tempURLAlphabet drops characters that are easily confused with one
// another when read off a phone screen: I, i, L, l, O, o, 0, 1.
const tempURLAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

var ErrAlreadyRegistered = errors.New("authed token is already bound to a registered user")
var ErrTempURLCollision = errors.New("failed to generate a unique registration temp url")

// TempURLService mints short, collision-checked URLs that bridge an
// unregistered AuthedToken to the web registration flow.
type TempURLService struct {
	redis   *redis.Client
	baseURL string
}

// NewTempURLService builds a TempURLService whose URLs are rooted at
// baseURL.
func NewTempURLService(redis *redis.Client, baseURL string) *TempURLService {
	return &TempURLService{redis: redis, baseURL: baseURL}
}

// CreateRegistrationURL mints a temp-URL bound to authedTokenID, storing it
// in Redis for tempURLTTL. It is an error to call this for a token already
// bound to a registered user.
func (s *TempURLService) CreateRegistrationURL(ctx context.Context, authedTokenID string, alreadyRegistered bool) (string, error) {
	if alreadyRegistered {
		return "", ErrAlreadyRegistered
	}

	query, err := s.uniqueQuery(ctx)
	if err != nil {
		return "", err
	}

	key := tempURLKey(query)
	if err := s.redis.SetEx(ctx, key, authedTokenID, tempURLTTL).Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/user/register/%s", s.baseURL, query), nil
}

// ResolveAuthedTokenID looks up the authed token bound to a registration
// query string, without consuming it.
func (s *TempURLService) ResolveAuthedTokenID(ctx context.Context, query string) (string, error) {
	return s.redis.Get(ctx, tempURLKey(query)).Result()
}

func (s *TempURLService) uniqueQuery(ctx context.Context) (string, error) {
	query, err := randomString(tempURLLen)
	if err != nil {
		return "", err
	}

	exists, err := s.redis.Exists(ctx, tempURLKey(query)).Result()
	if err != nil {
		return "", err
	}
	if exists == 0 {
		return query, nil
	}

	// A second attempt only; a back-to-back collision on a 5-char,
	// 54-symbol alphabet is rare enough not to warrant a retry loop.
	query, err = randomString(tempURLLen)
	if err != nil {
		return "", err
	}
	exists, err = s.redis.Exists(ctx, tempURLKey(query)).Result()
	if err != nil {
		return "", err
	}
	if exists != 0 {
		return "", ErrTempURLCollision
	}

	return query, nil
}

func tempURLKey(query string) string {
	return "userreg:tempurl:register:" + query
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tempURLAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempURLAlphabet[idx.Int64()]
	}
	return string(out), nil
}
