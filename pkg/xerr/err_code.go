package xerr

import "net/http"

const (
	ErrInternalServer = 500 // HTTP 500
	ErrUpstream       = 502 // HTTP 502

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400
	ErrInvalidJSON      = 1003 // HTTP 400

	ErrUnauthenticated = 1100 // HTTP 401
	ErrInvalidToken    = 1101 // HTTP 401

	ErrNotFound         = 1300 // HTTP 404
	ErrResourceNotFound = 1301 // HTTP 404
	ErrJobNotFound      = 1302 // HTTP 404
)

var codeText = map[int]string{
	ErrInternalServer:   "internal server error",
	ErrUpstream:         "upstream unavailable",
	ErrBadRequest:       "bad request",
	ErrInvalidInput:     "invalid input",
	ErrMissingParameter: "missing parameter",
	ErrInvalidJSON:      "invalid JSON body",
	ErrUnauthenticated:  "invalid credentials",
	ErrInvalidToken:     "missing or invalid token",
	ErrNotFound:         "not found",
	ErrResourceNotFound: "resource not found",
	ErrJobNotFound:      "job not found",
}

// Text 返回错误码的默认描述
func Text(code int) string {
	if msg, ok := codeText[code]; ok {
		return msg
	}
	return codeText[ErrInternalServer]
}

// HTTPStatus 把业务错误码映射为 HTTP 状态码
func HTTPStatus(code int) int {
	switch {
	case code >= 1000 && code < 1100:
		return http.StatusBadRequest
	case code >= 1100 && code < 1200:
		return http.StatusUnauthorized
	case code >= 1200 && code < 1300:
		return http.StatusForbidden
	case code >= 1300 && code < 1400:
		return http.StatusNotFound
	case code == ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
