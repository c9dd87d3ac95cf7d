package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/Slowper/emmawebsitempa-sub001/pkg/xerr"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// New 构造函数，msg 为空时使用错误码的默认描述
func New(code int, msg string) error {
	if msg == "" {
		msg = xerr.Text(code)
	}
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 包装原始错误
func Wrap(code int, msg string, err error) error {
	if msg == "" {
		msg = xerr.Text(code)
	}
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

// FromError 取出 CodeMsg，非业务错误统一归为 500
func FromError(err error) *CodeMsg {
	var cm *CodeMsg
	if stderrors.As(err, &cm) {
		return cm
	}
	return &CodeMsg{Code: xerr.ErrInternalServer, Msg: xerr.Text(xerr.ErrInternalServer), Err: err}
}
