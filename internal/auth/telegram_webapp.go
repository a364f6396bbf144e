package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultInitDataTTL — максимальный возраст auth_date initData.
	// WebApp-клиент маркетплейса держит сессию открытой до суток.
	DefaultInitDataTTL = 24 * time.Hour

	webAppDataKey = "WebAppData"
)

// Rejection kinds. Callers must treat all of them as "not authenticated";
// the kind only exists for logging.
var (
	ErrEmptyPayload       = errors.New("empty payload")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrMissingField       = errors.New("missing required field")
	ErrMalformedTimestamp = errors.New("malformed auth_date")
	ErrExpired            = errors.New("payload expired")
	ErrFromFuture         = errors.New("auth_date is in the future")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrMalformedIdentity  = errors.New("malformed user identity")
)

// RejectionError wraps one of the Err* kinds with a detail for debug logs.
type RejectionError struct {
	Kind   error
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return "initData rejected: " + e.Kind.Error()
	}
	return fmt.Sprintf("initData rejected: %s: %s", e.Kind, e.Detail)
}

func (e *RejectionError) Unwrap() error { return e.Kind }

func reject(kind error, format string, args ...any) error {
	return &RejectionError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Identity is the Telegram user carried in a verified initData payload.
type Identity struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	IsPremium    bool      `json:"is_premium,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	AuthDate     time.Time `json:"-"`
}

// WebAppConfig is fixed at construction and never mutated afterwards.
type WebAppConfig struct {
	// BotToken пустой — верификатор отклоняет всё: HMAC от пустого ключа может посчитать кто угодно.
	BotToken string
	// MaxAge — максимально допустимый возраст auth_date. Если <= 0, используется DefaultInitDataTTL.
	MaxAge time.Duration
	// FutureSkew > 0 rejects auth_date later than now+FutureSkew. Zero disables the check.
	FutureSkew time.Duration
	// Strict rejects segments without '=' instead of skipping them.
	Strict bool
}

// WebAppVerifier validates initData from Telegram WebApp.
// https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
//
// It holds no mutable state and is safe for concurrent use.
type WebAppVerifier struct {
	secretKey  []byte // nil when no bot token is configured
	maxAge     int64
	futureSkew int64
	strict     bool
	now        func() time.Time
}

func NewWebAppVerifier(cfg WebAppConfig) *WebAppVerifier {
	return NewWebAppVerifierWithClock(cfg, time.Now)
}

func NewWebAppVerifierWithClock(cfg WebAppConfig, now func() time.Time) *WebAppVerifier {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultInitDataTTL
	}
	var secretKey []byte
	if cfg.BotToken != "" {
		secretKey = deriveSecretKey(cfg.BotToken)
	}
	return &WebAppVerifier{
		secretKey:  secretKey,
		maxAge:     int64(cfg.MaxAge / time.Second),
		futureSkew: int64(cfg.FutureSkew / time.Second),
		strict:     cfg.Strict,
		now:        now,
	}
}

// Verify returns the identity only if every check passes. Any failure is a *RejectionError.
func (v *WebAppVerifier) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, &RejectionError{Kind: ErrEmptyPayload}
	}

	fields, err := parseInitData(raw, v.strict)
	if err != nil {
		return nil, err
	}

	receivedHash, ok := fields["hash"]
	if !ok {
		return nil, reject(ErrMissingField, "hash")
	}
	authDateStr, ok := fields["auth_date"]
	if !ok {
		return nil, reject(ErrMissingField, "auth_date")
	}
	delete(fields, "hash")

	// ---- Проверяем auth_date (свежесть) ----
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, reject(ErrMalformedTimestamp, "%q", authDateStr)
	}
	// Сравниваем без вычитания из auth_date: now - auth_date переполняется у краёв int64
	now := v.now().Unix()
	if authDate < now-v.maxAge {
		return nil, reject(ErrExpired, "auth_date %d is older than %ds (now %d)", authDate, v.maxAge, now)
	}
	if v.futureSkew > 0 && authDate > now+v.futureSkew {
		return nil, reject(ErrFromFuture, "auth_date %d is more than %ds ahead of %d", authDate, v.futureSkew, now)
	}

	// ---- Проверяем HMAC-SHA256 подпись ----
	if v.secretKey == nil {
		return nil, reject(ErrSignatureMismatch, "no bot token configured")
	}
	expected := hex.EncodeToString(hmacSHA256(v.secretKey, []byte(DataCheckString(fields))))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(receivedHash)) != 1 {
		return nil, &RejectionError{Kind: ErrSignatureMismatch}
	}

	var ident Identity
	if err := json.Unmarshal([]byte(fields["user"]), &ident); err != nil {
		return nil, reject(ErrMalformedIdentity, "%v", err)
	}
	if ident.ID == 0 {
		return nil, reject(ErrMalformedIdentity, "user.id is missing")
	}
	ident.AuthDate = time.Unix(authDate, 0).UTC()

	return &ident, nil
}

// parseInitData splits on '&' and the first '='. Values are percent-decoded
// without turning '+' into a space. Later duplicates win.
func parseInitData(raw string, strict bool) (map[string]string, error) {
	fields := make(map[string]string)
	for _, segment := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(segment, "=")
		if !found {
			if strict {
				return nil, reject(ErrMalformedPayload, "segment without '=': %q", segment)
			}
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return nil, reject(ErrMalformedPayload, "field %q: %v", key, err)
		}
		if !utf8.ValidString(decoded) {
			return nil, reject(ErrMalformedPayload, "field %q is not valid UTF-8", key)
		}
		fields[key] = decoded
	}
	return fields, nil
}

// DataCheckString renders fields (without hash) sorted by key as key=value lines.
func DataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

// Sign computes the hex hash Telegram would attach to fields for botToken.
func Sign(fields map[string]string, botToken string) string {
	return hex.EncodeToString(hmacSHA256(deriveSecretKey(botToken), []byte(DataCheckString(fields))))
}

// secret_key = HMAC-SHA256("WebAppData", bot_token)
func deriveSecretKey(botToken string) []byte {
	return hmacSHA256([]byte(webAppDataKey), []byte(botToken))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
