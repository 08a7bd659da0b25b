package transport

import (
	"net/http"

	"golang.org/x/text/language"

	"imagepress/internal/common"
)

// Language selects the user-facing message table
type Language string

const (
	English Language = "en"
	German  Language = "de"
	Persian Language = "fa"
)

// supported is in matcher order; the first entry is the fallback.
var supported = []Language{English, German, Persian}

var matcher = language.NewMatcher([]language.Tag{language.English, language.German, language.Persian})

var messages = map[Language]map[common.ErrorKind]string{
	English: {
		common.KindUnsupportedFormat: "This file format is not supported. Please send a JPEG, PNG, BMP or WebP image.",
		common.KindCorruptData:       "The image could not be read. It may be damaged, please try another file.",
		common.KindNoPendingImages:   "There is nothing to convert yet. Send one or more images first.",
		common.KindInvalidLevel:      "Unknown compression level. Choose high, medium or low.",
		common.KindInternal:          "Something went wrong while creating your PDF. Please try again.",
	},
	German: {
		common.KindUnsupportedFormat: "Dieses Dateiformat wird nicht unterstützt. Bitte sende ein JPEG-, PNG-, BMP- oder WebP-Bild.",
		common.KindCorruptData:       "Das Bild konnte nicht gelesen werden. Es ist möglicherweise beschädigt, bitte versuche eine andere Datei.",
		common.KindNoPendingImages:   "Es gibt noch nichts umzuwandeln. Sende zuerst ein oder mehrere Bilder.",
		common.KindInvalidLevel:      "Unbekannte Komprimierungsstufe. Wähle high, medium oder low.",
		common.KindInternal:          "Beim Erstellen deiner PDF ist etwas schiefgelaufen. Bitte versuche es erneut.",
	},
	Persian: {
		common.KindUnsupportedFormat: "این فرمت فایل پشتیبانی نمی‌شود. لطفاً یک تصویر JPEG، PNG، BMP یا WebP بفرستید.",
		common.KindCorruptData:       "تصویر قابل خواندن نیست. ممکن است خراب باشد، لطفاً فایل دیگری را امتحان کنید.",
		common.KindNoPendingImages:   "هنوز چیزی برای تبدیل وجود ندارد. ابتدا یک یا چند تصویر بفرستید.",
		common.KindInvalidLevel:      "سطح فشرده‌سازی نامعتبر است. یکی از high، medium یا low را انتخاب کنید.",
		common.KindInternal:          "هنگام ساخت PDF مشکلی پیش آمد. لطفاً دوباره تلاش کنید.",
	},
}

// ParseLanguage matches an Accept-Language value against the supported
// languages. Anything unmatched is English.
func ParseLanguage(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return English
	}
	return supported[index]
}

func requestLanguage(r *http.Request) Language {
	return ParseLanguage(r.Header.Get("Accept-Language"))
}

// LocalizedMessage is the user-facing text for an error kind in lang,
// falling back to English.
func LocalizedMessage(kind common.ErrorKind, lang Language) string {
	switch kind {
	case common.KindEmptyInput:
		kind = common.KindNoPendingImages
	case common.KindUnsupportedFormat, common.KindCorruptData, common.KindNoPendingImages, common.KindInvalidLevel:
	default:
		kind = common.KindInternal
	}

	if msg, ok := messages[lang][kind]; ok {
		return msg
	}
	return messages[English][kind]
}

// Message is the English user-facing text for an error kind
func Message(kind common.ErrorKind) string {
	return LocalizedMessage(kind, English)
}
