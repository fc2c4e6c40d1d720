package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Key names a client-facing message.
type Key string

const (
	MsgUnauthorized     Key = "unauthorized"
	MsgInvalidRequest   Key = "invalid_request"
	MsgGenerationFailed Key = "generation_failed"
	MsgServerError      Key = "server_error"
	MsgNotFound         Key = "not_found"
	MsgRateLimited      Key = "rate_limited"
)

var supported = []language.Tag{
	language.English,
	language.Chinese,
	language.Japanese,
	language.Korean,
	language.Spanish,
	language.German,
	language.French,
}

var matcher = language.NewMatcher(supported)

// Legacy client codes that are not BCP 47.
var aliases = map[string]string{
	"jp": "ja",
	"kr": "ko",
	"cn": "zh",
}

var catalog = map[string]map[Key]string{
	"en": {
		MsgUnauthorized:     "Please sign in to continue.",
		MsgInvalidRequest:   "The request is missing information or is malformed.",
		MsgGenerationFailed: "We could not generate this preview. Please try again.",
		MsgServerError:      "Something went wrong on our side. Please try again later.",
		MsgNotFound:         "Not found.",
		MsgRateLimited:      "Too many requests. Please slow down.",
	},
	"zh": {
		MsgUnauthorized:     "请先登录。",
		MsgInvalidRequest:   "请求缺少信息或格式不正确。",
		MsgGenerationFailed: "无法生成预览，请重试。",
		MsgServerError:      "服务器出现问题，请稍后再试。",
		MsgNotFound:         "未找到。",
		MsgRateLimited:      "请求过于频繁，请稍后再试。",
	},
	"ja": {
		MsgUnauthorized:     "続行するにはログインしてください。",
		MsgInvalidRequest:   "リクエストの内容が不足しているか、形式が正しくありません。",
		MsgGenerationFailed: "プレビューを生成できませんでした。もう一度お試しください。",
		MsgServerError:      "サーバーで問題が発生しました。しばらくしてから再度お試しください。",
		MsgNotFound:         "見つかりません。",
		MsgRateLimited:      "リクエストが多すぎます。しばらくお待ちください。",
	},
	"ko": {
		MsgUnauthorized:     "계속하려면 로그인하세요.",
		MsgInvalidRequest:   "요청에 정보가 없거나 형식이 잘못되었습니다.",
		MsgGenerationFailed: "미리보기를 생성하지 못했습니다. 다시 시도하세요.",
		MsgServerError:      "서버에 문제가 발생했습니다. 잠시 후 다시 시도하세요.",
		MsgNotFound:         "찾을 수 없습니다.",
		MsgRateLimited:      "요청이 너무 많습니다. 잠시 후 다시 시도하세요.",
	},
	"es": {
		MsgUnauthorized:     "Inicia sesión para continuar.",
		MsgInvalidRequest:   "A la solicitud le falta información o no es válida.",
		MsgGenerationFailed: "No pudimos generar esta vista previa. Inténtalo de nuevo.",
		MsgServerError:      "Algo salió mal. Inténtalo más tarde.",
		MsgNotFound:         "No encontrado.",
		MsgRateLimited:      "Demasiadas solicitudes. Espera un momento.",
	},
	"de": {
		MsgUnauthorized:     "Bitte melde dich an, um fortzufahren.",
		MsgInvalidRequest:   "Der Anfrage fehlen Angaben oder sie ist ungültig.",
		MsgGenerationFailed: "Die Vorschau konnte nicht erstellt werden. Bitte versuche es erneut.",
		MsgServerError:      "Etwas ist schiefgelaufen. Bitte versuche es später erneut.",
		MsgNotFound:         "Nicht gefunden.",
		MsgRateLimited:      "Zu viele Anfragen. Bitte warte kurz.",
	},
	"fr": {
		MsgUnauthorized:     "Veuillez vous connecter pour continuer.",
		MsgInvalidRequest:   "La requête est incomplète ou mal formée.",
		MsgGenerationFailed: "Impossible de générer cet aperçu. Veuillez réessayer.",
		MsgServerError:      "Une erreur est survenue. Veuillez réessayer plus tard.",
		MsgNotFound:         "Introuvable.",
		MsgRateLimited:      "Trop de requêtes. Veuillez patienter.",
	},
}

// Match resolves an Accept-Language style preference list to a supported
// base language. Unknown input yields "en".
func Match(prefs ...string) string {
	tags := make([]language.Tag, 0, len(prefs))
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if alias, ok := aliases[strings.ToLower(p)]; ok {
			p = alias
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return "en"
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Message returns the localized text for key, falling back to English.
func Message(locale string, key Key) string {
	if msgs, ok := catalog[locale]; ok {
		if m, ok := msgs[key]; ok {
			return m
		}
	}
	return catalog["en"][key]
}
