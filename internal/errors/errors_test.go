package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrRoomNotFound)
	suite.NotNil(err)
	suite.Equal(ErrRoomNotFound, err.Code)
	suite.Equal("room not found", err.Message)
	suite.Empty(err.Details)

	// 多个详情
	err = New(ErrPersistence, "写入失败", "path: storage.json")
	suite.Equal("写入失败; path: storage.json", err.Details)

	// 未知错误码回退到通用消息
	err = New(ErrorCode(42))
	suite.Equal("unknown error", err.Message)
}

func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrPlayerNotFound, "player %s", "ab12cd34")
	suite.Equal(ErrPlayerNotFound, err.Code)
	suite.Equal("player ab12cd34", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("disk full")
	wrappedErr := Wrap(originalErr, ErrPersistence)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrPersistence, wrappedErr.Code)
	suite.Equal("disk full", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Unwrap())

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrRoomFull, "4/4")
	rewrapped := Wrap(appErr, ErrPersistence, "join")
	suite.Equal(ErrRoomFull, rewrapped.Code)
	suite.Contains(rewrapped.Details, "join")
}

func (suite *ErrorsTestSuite) TestIsAndGetCode() {
	err := New(ErrForbidden)
	suite.True(Is(err, ErrForbidden))
	suite.False(Is(err, ErrRoomNotFound))
	suite.False(Is(nil, ErrForbidden))

	// 被fmt包装后仍可识别
	chained := fmt.Errorf("guess: %w", err)
	suite.True(Is(chained, ErrForbidden))
	suite.Equal(ErrForbidden, GetCode(chained))

	suite.Equal(ErrUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{Code: ErrRoomNotFound, Message: "room not found"}
	suite.Equal("[2000] room not found", err.Error())

	err.Details = "id: x"
	suite.Equal("[2000] room not found: id: x", err.Error())
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrInvalidParam, http.StatusBadRequest},
		{ErrRoomNotFound, http.StatusNotFound},
		{ErrPlayerNotFound, http.StatusNotFound},
		{ErrRoomFull, http.StatusBadRequest},
		{ErrInsufficientPlayers, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrInvariantViolation, http.StatusBadRequest},
		{ErrGuessLimitReached, http.StatusConflict},
		{ErrPersistence, http.StatusServiceUnavailable},
		{ErrDatabaseConnect, http.StatusServiceUnavailable},
		{ErrConfigLoad, http.StatusInternalServerError},
		{ErrUnknown, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		suite.Equal(tc.expected, New(tc.code).HTTPStatus(), "code %d", tc.code)
	}
}

func (suite *ErrorsTestSuite) TestIsRetryable() {
	suite.True(IsRetryable(New(ErrDatabaseConnect)))
	suite.False(IsRetryable(New(ErrPersistence)))
	suite.False(IsRetryable(New(ErrRoomFull)))
	suite.False(IsRetryable(nil))
}

func (suite *ErrorsTestSuite) TestErrorResponse() {
	resp := NewErrorResponse(New(ErrRoomFull, "room abc"))
	suite.Equal("room full", resp.Error)
	suite.Equal(ErrRoomFull, resp.Code)
	suite.Equal("room abc", resp.Details)
	suite.NotZero(resp.Timestamp)
}

// 运行测试套件
func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
