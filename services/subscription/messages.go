package subscription

import "github.com/DL444/cqu-schedule/lib/portal"

// Messages is the user-facing string table. Config may override any
// key; missing keys fall back to the embedded defaults.
type Messages map[string]string

func DefaultMessages() Messages {
	return Messages{
		"subscribe_success":    "订阅成功。请将日历链接添加到您的日历应用。",
		"incorrect_credential": "学号或密码错误。请检查后重试。",
		"captcha_required":     "教务系统要求输入验证码。请先在浏览器中登录一次教务系统，然后重试。",
		"info_required":        "教务系统要求完善个人信息。请先在浏览器中登录教务系统并完善信息，然后重试。",
		"connection_failed":    "无法连接到教务系统。请稍后重试。",
		"unknown_failure":      "登录失败，原因未知。请稍后重试。",
		"upstream_error":       "教务系统返回了无法识别的数据。请稍后重试。",
		"invalid_username":     "学号格式不正确。",
	}
}

func (m Messages) Get(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return DefaultMessages()[key]
}

// ResultMessage maps a classified sign-in outcome to its user-facing
// string.
func (m Messages) ResultMessage(result portal.Result) string {
	switch result {
	case portal.ResultIncorrectCredential:
		return m.Get("incorrect_credential")
	case portal.ResultCaptchaRequired:
		return m.Get("captcha_required")
	case portal.ResultInfoRequired:
		return m.Get("info_required")
	case portal.ResultConnectionFailed:
		return m.Get("connection_failed")
	default:
		return m.Get("unknown_failure")
	}
}
