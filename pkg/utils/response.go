package utils

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/zhouzirui/health-assistant/backend/pkg/log"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondErr 按 *response.Error 携带的状态码返回错误，其他错误返回 500。
// 内部错误只记录日志，不向客户端暴露细节。
func RespondErr(w http.ResponseWriter, err error) {
	status := response.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error(log.Fields{"error": err.Error()}, "request failed")
		RespondError(w, status, http.StatusText(status))
		return
	}
	RespondError(w, status, err.Error())
}

// DecodeJSON 使用与响应相同的编解码器解析请求体
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
