package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Формат токена: base64url(header).base64url(payload).base64url(signature),
// подпись — HMAC-SHA-256 над "headerSeg.payloadSeg". Единственный
// поддерживаемый алгоритм — HS256; любое другое значение alg в заголовке
// (включая "none") считается невалидным без попытки проверки подписи.

var (
	// errMalformedToken — строка не состоит из трёх непустых сегментов.
	errMalformedToken = errors.New("malformed token")
	// errMalformedSegment — сегмент не является корректным base64url.
	errMalformedSegment = errors.New("malformed segment")
	// errBadSignature — подпись не совпала с вычисленной.
	errBadSignature = errors.New("invalid signature")
	// errUnsupportedAlg — в заголовке объявлен не HS256.
	errUnsupportedAlg = errors.New("unsupported algorithm")
)

// Claims — полезная нагрузка сессионного токена.
// UserID — числовой идентификатор пользователя Telegram; Role непустой
// только у административных токенов; Exp — unix-секунды, 0 означает
// отсутствие клейма (такой токен не истекает).
type Claims struct {
	UserID   int64  `json:"uid"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
}

// splitToken разбирает строку на три сегмента. Ровно три непустых сегмента —
// иначе errMalformedToken; частично доверенных состояний не бывает.
func splitToken(raw string) (header, payload, signature string, err error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return "", "", "", errMalformedToken
	}

	for _, p := range parts {
		if p == "" {
			return "", "", "", errMalformedToken
		}
	}

	return parts[0], parts[1], parts[2], nil
}

// decodeSegment декодирует base64url-сегмент. Принимаем и паддированную,
// и непаддированную форму: недостающие '=' дорисовываем до кратности 4.
func decodeSegment(seg string) ([]byte, error) {
	if m := len(seg) % 4; m != 0 {
		seg += strings.Repeat("=", 4-m)
	}

	b, err := base64.URLEncoding.DecodeString(seg)
	if err != nil {
		return nil, errMalformedSegment
	}

	return b, nil
}

// verifySignature проверяет подпись токена: HMAC-SHA-256 над
// "headerSeg.payloadSeg" с секретом в роли ключа. Сравнение — только
// hmac.Equal (константное время); побайтовый цикл с ранним выходом
// здесь недопустим.
func verifySignature(headerSeg, payloadSeg, signatureSeg string, secret []byte) error {
	sig, err := decodeSegment(signatureSeg)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(headerSeg + "." + payloadSeg))
	expected := mac.Sum(nil)

	if !hmac.Equal(sig, expected) {
		return errBadSignature
	}

	return nil
}

// decodeAndVerify — общий путь проверки: структура, заголовок, подпись,
// клеймы. Возвращает распарсенные клеймы или одну из внутренних ошибок.
func decodeAndVerify(raw string, secret []byte) (*Claims, error) {
	headerSeg, payloadSeg, signatureSeg, err := splitToken(raw)
	if err != nil {
		return nil, err
	}

	headerBytes, err := decodeSegment(headerSeg)
	if err != nil {
		return nil, err
	}

	var hdr tokenHeader
	if err := json.Unmarshal(headerBytes, &hdr); err != nil {
		return nil, errMalformedSegment
	}

	if hdr.Alg != "HS256" {
		return nil, errUnsupportedAlg
	}

	if err := verifySignature(headerSeg, payloadSeg, signatureSeg, secret); err != nil {
		return nil, err
	}

	payloadBytes, err := decodeSegment(payloadSeg)
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errMalformedSegment
	}

	return &claims, nil
}

// Sign выпускает подписанный токен с переданными клеймами.
// Сегменты кодируются без паддинга (стандартная форма JWT).
func Sign(claims Claims, secret []byte) (string, error) {
	const op = "auth.Sign"

	if len(secret) == 0 {
		return "", fmt.Errorf("%s: empty secret", op)
	}

	headerBytes, err := json.Marshal(tokenHeader{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerBytes) +
		"." + base64.RawURLEncoding.EncodeToString(payloadBytes)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + "." + signature, nil
}
